package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records campaign engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when
// disabled.
type MetricsRecorder interface {
	// RecordTrigger records one trigger evaluation. When fired is
	// false, reason names the gate that stopped it ("not_anonymous",
	// "already_applied", "unknown_type", "handler_error").
	RecordTrigger(ctx context.Context, eventType string, fired bool, reason string)

	// RecordBackfill records a campaign backfill run.
	RecordBackfill(ctx context.Context, success bool, fired int, duration time.Duration)

	// RecordLogBatch records a persisted log batch with its requested
	// and actually-inserted sizes.
	RecordLogBatch(ctx context.Context, size, inserted int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	triggersFired   metric.Int64Counter
	triggersSkipped metric.Int64Counter
	backfillRuns    metric.Int64Counter
	backfillLatency metric.Float64Histogram
	batchSize       metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("campaignkit")

	triggersFired, err := meter.Int64Counter("campaignkit.trigger.fired",
		metric.WithDescription("Number of events fired"),
	)
	if err != nil {
		return nil, err
	}

	triggersSkipped, err := meter.Int64Counter("campaignkit.trigger.skipped",
		metric.WithDescription("Number of trigger evaluations that did not fire"),
	)
	if err != nil {
		return nil, err
	}

	backfillRuns, err := meter.Int64Counter("campaignkit.backfill.runs",
		metric.WithDescription("Number of campaign backfill runs"),
	)
	if err != nil {
		return nil, err
	}

	backfillLatency, err := meter.Float64Histogram("campaignkit.backfill.latency_ms",
		metric.WithDescription("Backfill run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("campaignkit.log.batch_size",
		metric.WithDescription("Event log batch size in entries"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		triggersFired:   triggersFired,
		triggersSkipped: triggersSkipped,
		backfillRuns:    backfillRuns,
		backfillLatency: backfillLatency,
		batchSize:       batchSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses
// OpenTelemetry. If metrics initialization fails, returns a no-op
// recorder.
//
// The recorder uses the global OTel meter provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordTrigger records one trigger evaluation.
func (m *otelMetrics) RecordTrigger(ctx context.Context, eventType string, fired bool, reason string) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}

	if fired {
		m.triggersFired.Add(ctx, 1, metric.WithAttributes(attrs...))
		return
	}
	attrs = append(attrs, attribute.String("reason", reason))
	m.triggersSkipped.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBackfill records a backfill run.
func (m *otelMetrics) RecordBackfill(ctx context.Context, success bool, fired int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.backfillRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.backfillLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordLogBatch records a persisted log batch.
func (m *otelMetrics) RecordLogBatch(ctx context.Context, size, inserted int) {
	m.batchSize.Record(ctx, int64(size),
		metric.WithAttributes(attribute.Int("inserted", inserted)))
}
