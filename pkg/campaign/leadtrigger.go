package campaign

import (
	"context"
	"fmt"

	"github.com/randalmurphal/campaignkit/pkg/campaign/eventlog"
)

// TriggerForLead walks all published campaign events the lead belongs
// to and fires the ones not yet applied. Returns the number of log
// rows written.
//
// The applied-event set is fetched once up front and events are
// evaluated with checkApplied=false, so the store is queried once per
// lead rather than once per event, and all resulting log entries are
// appended in a single batch. A failing handler skips only its own
// event; the walk continues.
func (e *Engine) TriggerForLead(ctx context.Context, lead *Lead) (int, error) {
	if lead == nil {
		return 0, ErrNilLead
	}
	if e.events == nil {
		return 0, ErrNoEventSource
	}
	if len(lead.CampaignIDs) == 0 {
		return 0, nil
	}

	ctx, span := e.spans.StartLeadSpan(ctx, lead.ID)
	var walkErr error
	defer func() { e.spans.EndSpanWithError(span, walkErr) }()

	events, err := e.events.PublishedEvents(ctx, lead.CampaignIDs)
	if err != nil {
		walkErr = fmt.Errorf("fetch published events: %w", err)
		return 0, walkErr
	}
	if len(events) == 0 {
		return 0, nil
	}

	applied, err := e.store.AppliedEventIDs(ctx, lead.ID)
	if err != nil {
		walkErr = fmt.Errorf("fetch applied events: %w", err)
		return 0, walkErr
	}

	var batch []eventlog.Entry
	for _, event := range events {
		if _, ok := applied[event.ID]; ok {
			e.skip(ctx, event, lead, skipAlreadyApplied)
			continue
		}
		if e.TryTrigger(ctx, event, lead, false) {
			batch = append(batch, e.LogEntry(event, lead))
		}
	}

	inserted, err := e.appendBatch(ctx, batch)
	if err != nil {
		walkErr = fmt.Errorf("append log batch: %w", err)
		return 0, walkErr
	}
	return inserted, nil
}
