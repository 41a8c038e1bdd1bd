package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the campaignkit tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("campaignkit")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when
// disabled.
type SpanManager interface {
	// StartBackfillSpan starts a span for a campaign backfill run.
	StartBackfillSpan(ctx context.Context, campaignID string) (context.Context, trace.Span)

	// StartLeadSpan starts a span for walking one lead's events.
	// It should be a child of the backfill or request span.
	StartLeadSpan(ctx context.Context, leadID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartBackfillSpan starts a span for a campaign backfill run.
func (m *otelSpanManager) StartBackfillSpan(ctx context.Context, campaignID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "campaignkit.backfill",
		trace.WithAttributes(
			attribute.String("campaign.id", campaignID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartLeadSpan starts a span for walking one lead's events.
func (m *otelSpanManager) StartLeadSpan(ctx context.Context, leadID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "campaignkit.lead",
		trace.WithAttributes(
			attribute.String("lead.id", leadID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
