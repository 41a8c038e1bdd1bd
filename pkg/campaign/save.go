package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/campaignkit/pkg/campaign/eventlog"
	"github.com/randalmurphal/campaignkit/pkg/campaign/observability"
)

// SaveCampaign runs the engine's part of persisting a campaign. The
// caller persists the entity itself; this hook fires the backfill when
// the campaign is published with TriggerExistingLeads set.
//
// entity must be a *Campaign; anything else returns an
// UnsupportedEntityError, the one fault in this package that is a
// programmer error rather than a routine negative. isNew distinguishes
// a first-time publish from an update: updates exclude leads already
// logged for each event, first publishes have nothing to exclude.
func (e *Engine) SaveCampaign(ctx context.Context, entity any, isNew bool) error {
	c, ok := entity.(*Campaign)
	if !ok {
		return &UnsupportedEntityError{Got: fmt.Sprintf("%T", entity)}
	}

	if !c.Published || !c.TriggerExistingLeads {
		return nil
	}
	return e.backfill(ctx, c, isNew)
}

// backfill retroactively applies a campaign's events to leads that
// matched the enrollment window before publish: added on or before the
// campaign's creation time and members of the campaign.
//
// Events are walked flat, in order-key order, without requiring that a
// lead satisfied an event's parent before evaluating the child. That
// mirrors the long-standing publish-time behavior; tree-aware backfill
// is an open product question.
func (e *Engine) backfill(ctx context.Context, c *Campaign, isNew bool) error {
	if e.leads == nil {
		return ErrNoLeadSource
	}

	events := c.OrderedEvents()
	observability.LogBackfillStart(e.logger, c.ID, len(events))
	done := observability.TimedOperation()

	ctx, span := e.spans.StartBackfillSpan(ctx, c.ID)
	var runErr error
	defer func() { e.spans.EndSpanWithError(span, runErr) }()

	var batch []eventlog.Entry
	for _, event := range events {
		var exclude []string
		if !isNew {
			ids, err := e.store.LeadIDsForEvent(ctx, event.ID)
			if err != nil {
				// Skip this event rather than abort the run; the
				// unique index still prevents double-firing at append.
				observability.LogStoreError(e.logger, "lead_ids_for_event", err)
				continue
			}
			exclude = ids
		}

		cursor, err := e.leads.FindEnrollable(ctx, EnrollmentQuery{
			CampaignID:     c.ID,
			AddedBefore:    c.CreatedAt,
			ExcludeLeadIDs: exclude,
		})
		if err != nil {
			observability.LogStoreError(e.logger, "find_enrollable", err)
			continue
		}

		for {
			lead, ok := cursor.Next()
			if !ok {
				break
			}
			if e.TryTrigger(ctx, event, lead, false) {
				batch = append(batch, e.LogEntry(event, lead))
			}
		}
		if err := cursor.Err(); err != nil {
			observability.LogStoreError(e.logger, "lead_cursor", err)
		}
		cursor.Close()
	}

	inserted, err := e.appendBatch(ctx, batch)
	if err != nil {
		runErr = fmt.Errorf("append backfill batch: %w", err)
		e.metrics.RecordBackfill(ctx, false, 0, 0)
		return runErr
	}

	durationMs := done()
	observability.LogBackfillComplete(e.logger, c.ID, inserted, durationMs)
	e.metrics.RecordBackfill(ctx, true, inserted, durationFromMs(durationMs))
	return nil
}

// durationFromMs converts a millisecond reading back to a Duration for
// the metrics recorder.
func durationFromMs(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
