package campaign

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/randalmurphal/campaignkit/pkg/campaign/eventlog"
	"github.com/randalmurphal/campaignkit/pkg/campaign/observability"
)

// Engine evaluates campaign events against leads and fires the
// eligible ones at most once per (event, lead) pair.
//
// An Engine is safe for concurrent use. The at-most-once guarantee is
// only as strong as the log store's Append: the store must reject
// duplicate (event, lead) pairs atomically, which both bundled stores
// do.
type Engine struct {
	store    eventlog.Store
	handlers *HandlerRegistry
	leads    LeadSource
	events   EventSource
	session  SessionContext
	clock    Clock
	ip       IPResolver
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
}

// New creates an engine over the given event log store.
// Defaults: the process-wide handler registry, an anonymous session,
// the system clock, an empty origin IP, slog.Default(), and no-op
// metrics and tracing. Override with options.
func New(store eventlog.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		handlers: DefaultHandlers(),
		session:  StaticSession(true),
		clock:    SystemClock(),
		ip:       StaticIP(""),
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Skip reasons recorded on metrics and debug logs.
const (
	skipNotAnonymous   = "not_anonymous"
	skipAlreadyApplied = "already_applied"
	skipUnknownType    = "unknown_type"
	skipHandlerError   = "handler_error"
)

// TryTrigger fires the event for the lead if it is eligible and
// reports whether it fired.
//
// Eligibility is checked in order, stopping at the first failure: the
// session must be anonymous; with checkApplied, the event must not
// already be logged for the lead; and the event's type must be
// registered. Callers that bulk-checked the applied set pass
// checkApplied=false to skip the per-call query.
//
// All negative outcomes, including a handler error or panic, return
// false without an error: they are routine control flow, logged and
// counted but never surfaced.
//
// TryTrigger does not write the log entry itself. Callers collect an
// entry per firing (see LogEntry) and append them in one batch, so
// several events for the same lead share a single write.
func (e *Engine) TryTrigger(ctx context.Context, event *Event, lead *Lead, checkApplied bool) bool {
	if lead == nil || event == nil {
		return false
	}

	if !e.session.IsAnonymous() {
		e.skip(ctx, event, lead, skipNotAnonymous)
		return false
	}

	if checkApplied {
		applied, err := e.store.AppliedEventIDs(ctx, lead.ID)
		if err != nil {
			// Cannot verify, fail closed rather than risk double-firing.
			observability.LogStoreError(e.logger, "applied_event_ids", err)
			return false
		}
		if _, ok := applied[event.ID]; ok {
			e.skip(ctx, event, lead, skipAlreadyApplied)
			return false
		}
	}

	info, ok := e.handlers.Lookup(event.Type)
	if !ok {
		// Registries can change between authoring and execution;
		// tolerate rather than error.
		e.skip(ctx, event, lead, skipUnknownType)
		return false
	}

	if err := e.invoke(ctx, info.Do, event, lead); err != nil {
		observability.LogHandlerError(e.logger, event.ID, event.Type, lead.ID, err)
		e.metrics.RecordTrigger(ctx, event.Type, false, skipHandlerError)
		return false
	}

	observability.LogTriggerFired(e.logger, event.ID, event.Type, lead.ID)
	e.metrics.RecordTrigger(ctx, event.Type, true, "")
	return true
}

// invoke runs the handler with a recovered panic converted to an
// error, so one misbehaving handler cannot abort a batch walk.
func (e *Engine) invoke(ctx context.Context, h Handler, event *Event, lead *Lead) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerPanicError{
				EventType: event.Type,
				Value:     r,
				Stack:     string(debug.Stack()),
			}
		}
	}()

	ec := EventContext{
		Event: EventSummary{
			ID:         event.ID,
			Type:       event.Type,
			Name:       event.Name,
			Properties: event.Properties,
		},
		Lead:   lead,
		Logger: observability.EnrichLogger(e.logger, event.ID, event.Type, lead.ID),
		Now:    e.clock.Now(),
	}
	if event.Campaign != nil {
		ec.Event.Campaign = event.Campaign.Summary()
	}

	return h(ctx, ec)
}

// LogEntry builds the log row recording that the event fired for the
// lead, stamped with the engine's clock and origin IP. Callers batch
// these and append them through the store.
func (e *Engine) LogEntry(event *Event, lead *Lead) eventlog.Entry {
	entry := eventlog.Entry{
		ID:        uuid.New().String(),
		EventID:   event.ID,
		LeadID:    lead.ID,
		FiredAt:   e.clock.Now(),
		IPAddress: e.ip.Current(),
	}
	if event.Campaign != nil {
		entry.CampaignID = event.Campaign.ID
	}
	return entry
}

// appendBatch persists collected entries in one write and returns how
// many rows were actually inserted (duplicates are ignored by the
// store).
func (e *Engine) appendBatch(ctx context.Context, batch []eventlog.Entry) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	inserted, err := e.store.Append(ctx, batch)
	if err != nil {
		return 0, err
	}
	observability.LogBatchAppended(e.logger, len(batch), inserted)
	e.metrics.RecordLogBatch(ctx, len(batch), inserted)
	return inserted, nil
}

// skip records a routine negative trigger outcome.
func (e *Engine) skip(ctx context.Context, event *Event, lead *Lead, reason string) {
	observability.LogTriggerSkipped(e.logger, event.ID, lead.ID, reason)
	e.metrics.RecordTrigger(ctx, event.Type, false, reason)
}
