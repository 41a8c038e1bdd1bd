package campaign

import (
	"log/slog"

	"github.com/randalmurphal/campaignkit/pkg/campaign/observability"
)

// Option configures an Engine.
type Option func(*Engine)

// WithHandlers sets the handler registry the engine resolves event
// types against. Default: the process-wide registry.
func WithHandlers(r *HandlerRegistry) Option {
	return func(e *Engine) {
		if r != nil {
			e.handlers = r
		}
	}
}

// WithLeadSource sets the lead source backfills enroll from.
// Required for SaveCampaign backfills.
func WithLeadSource(s LeadSource) Option {
	return func(e *Engine) {
		e.leads = s
	}
}

// WithEventSource sets the event source TriggerForLead walks.
// Required for TriggerForLead.
func WithEventSource(s EventSource) Option {
	return func(e *Engine) {
		e.events = s
	}
}

// WithSession sets the session context for the anonymity gate.
// Default: always anonymous.
func WithSession(s SessionContext) Option {
	return func(e *Engine) {
		if s != nil {
			e.session = s
		}
	}
}

// WithClock sets the clock used for firing timestamps.
// Default: the system clock in UTC.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithIPResolver sets the resolver for the origin IP recorded on log
// entries. Default: an empty address.
func WithIPResolver(r IPResolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.ip = r
		}
	}
}

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithSpans sets the trace span manager. Default: no-op.
func WithSpans(s observability.SpanManager) Option {
	return func(e *Engine) {
		if s != nil {
			e.spans = s
		}
	}
}
