// Package observability provides structured logging, metrics, and
// tracing for the campaign engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds trigger context to a logger.
// Returns a new logger with event_id, event_type, and lead_id fields.
func EnrichLogger(logger *slog.Logger, eventID, eventType, leadID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("lead_id", leadID),
	)
}

// LogTriggerFired logs a successful event firing.
func LogTriggerFired(logger *slog.Logger, eventID, eventType, leadID string) {
	if logger == nil {
		return
	}
	logger.Info("event fired",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("lead_id", leadID),
	)
}

// LogTriggerSkipped logs an event that did not fire and why. Skips are
// routine control flow, so this logs at debug level.
func LogTriggerSkipped(logger *slog.Logger, eventID, leadID, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("event skipped",
		slog.String("event_id", eventID),
		slog.String("lead_id", leadID),
		slog.String("reason", reason),
	)
}

// LogHandlerError logs a handler invocation failure.
func LogHandlerError(logger *slog.Logger, eventID, eventType, leadID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("lead_id", leadID),
		slog.String("error", err.Error()),
	)
}

// LogBackfillStart logs the start of a campaign backfill.
func LogBackfillStart(logger *slog.Logger, campaignID string, eventCount int) {
	if logger == nil {
		return
	}
	logger.Info("backfill starting",
		slog.String("campaign_id", campaignID),
		slog.Int("events", eventCount),
	)
}

// LogBackfillComplete logs backfill completion.
func LogBackfillComplete(logger *slog.Logger, campaignID string, fired int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("backfill completed",
		slog.String("campaign_id", campaignID),
		slog.Int("fired", fired),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogBatchAppended logs a persisted log batch.
func LogBatchAppended(logger *slog.Logger, size, inserted int) {
	if logger == nil {
		return
	}
	logger.Debug("log batch appended",
		slog.Int("size", size),
		slog.Int("inserted", inserted),
	)
}

// LogStoreError logs an event log store failure (non-fatal to the
// surrounding batch walk).
func LogStoreError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event log store error",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
