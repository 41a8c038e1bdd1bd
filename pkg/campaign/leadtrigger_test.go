package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/campaignkit/pkg/campaign/eventlog"
)

// countingStore wraps a Store and counts Append calls.
type countingStore struct {
	eventlog.Store
	appends int
}

func (s *countingStore) Append(ctx context.Context, entries []eventlog.Entry) (int, error) {
	s.appends++
	return s.Store.Append(ctx, entries)
}

// publishedCampaign builds a published campaign with n send_email
// events.
func publishedCampaign(id string, eventIDs ...string) *Campaign {
	c := &Campaign{ID: id, Name: "Campaign " + id, Published: true}
	for i, evID := range eventIDs {
		c.AddEvent(&Event{ID: evID, Type: "send_email", Name: evID, Order: float64(i + 2)})
	}
	return c
}

// TestTriggerForLead_FiresAllAndBatchesOnce verifies all unapplied
// events fire and the log is written in a single batch.
func TestTriggerForLead_FiresAllAndBatchesOnce(t *testing.T) {
	c := publishedCampaign("c1", "ev-1", "ev-2", "ev-3")
	store := &countingStore{Store: eventlog.NewMemoryStore()}

	handlers := NewHandlerRegistry()
	handlers.Register("send_email", HandlerInfo{
		Do: func(ctx context.Context, ec EventContext) error { return nil },
	})

	engine := New(store,
		WithHandlers(handlers),
		WithEventSource(NewMemoryEventSource(c)),
		WithClock(fixedClock(testNow)),
	)
	lead := &Lead{ID: "lead-1", CampaignIDs: []string{"c1"}}

	fired, err := engine.TriggerForLead(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, 3, fired)
	assert.Equal(t, 1, store.appends)
}

// TestTriggerForLead_SkipsApplied verifies the bulk applied-set check
// filters events without re-querying per event.
func TestTriggerForLead_SkipsApplied(t *testing.T) {
	c := publishedCampaign("c1", "ev-1", "ev-2")
	engine, store, invocations := newTestEngine(t, WithEventSource(NewMemoryEventSource(c)))
	lead := &Lead{ID: "lead-1", CampaignIDs: []string{"c1"}}
	ctx := context.Background()

	ev1, _ := c.Event("ev-1")
	_, err := store.Append(ctx, []eventlog.Entry{engine.LogEntry(ev1, lead)})
	require.NoError(t, err)

	fired, err := engine.TriggerForLead(ctx, lead)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, *invocations, 1)
	assert.Equal(t, "ev-2", (*invocations)[0].Event.ID)
}

// TestTriggerForLead_SecondRunIsNoOp verifies a full second walk adds
// nothing.
func TestTriggerForLead_SecondRunIsNoOp(t *testing.T) {
	c := publishedCampaign("c1", "ev-1", "ev-2")
	engine, store, _ := newTestEngine(t, WithEventSource(NewMemoryEventSource(c)))
	lead := &Lead{ID: "lead-1", CampaignIDs: []string{"c1"}}
	ctx := context.Background()

	fired, err := engine.TriggerForLead(ctx, lead)
	require.NoError(t, err)
	assert.Equal(t, 2, fired)

	fired, err = engine.TriggerForLead(ctx, lead)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 2, store.Len())
}

// TestTriggerForLead_UnpublishedCampaignExcluded verifies draft
// campaigns contribute no events.
func TestTriggerForLead_UnpublishedCampaignExcluded(t *testing.T) {
	draft := publishedCampaign("c1", "ev-1")
	draft.Published = false
	engine, _, _ := newTestEngine(t, WithEventSource(NewMemoryEventSource(draft)))
	lead := &Lead{ID: "lead-1", CampaignIDs: []string{"c1"}}

	fired, err := engine.TriggerForLead(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

// TestTriggerForLead_FailingHandlerDoesNotAbortWalk verifies one
// failing event leaves the rest of the batch intact.
func TestTriggerForLead_FailingHandlerDoesNotAbortWalk(t *testing.T) {
	c := &Campaign{ID: "c1", Published: true}
	c.AddEvent(&Event{ID: "ev-bad", Type: "flaky", Order: 2})
	c.AddEvent(&Event{ID: "ev-good", Type: "send_email", Order: 3})

	handlers := NewHandlerRegistry()
	handlers.Register("send_email", HandlerInfo{
		Do: func(ctx context.Context, ec EventContext) error { return nil },
	})
	handlers.Register("flaky", HandlerInfo{
		Do: func(ctx context.Context, ec EventContext) error { return errors.New("smtp unreachable") },
	})

	store := eventlog.NewMemoryStore()
	engine := New(store,
		WithHandlers(handlers),
		WithEventSource(NewMemoryEventSource(c)),
	)
	lead := &Lead{ID: "lead-1", CampaignIDs: []string{"c1"}}

	fired, err := engine.TriggerForLead(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "ev-good", entries[0].EventID)
}

// TestTriggerForLead_NoMemberships verifies a lead outside all
// campaigns is a cheap no-op.
func TestTriggerForLead_NoMemberships(t *testing.T) {
	engine, _, _ := newTestEngine(t, WithEventSource(NewMemoryEventSource()))

	fired, err := engine.TriggerForLead(context.Background(), &Lead{ID: "lead-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

// TestTriggerForLead_ConfigErrors verifies missing collaborators are
// reported as errors, not silently skipped.
func TestTriggerForLead_ConfigErrors(t *testing.T) {
	engine, _, _ := newTestEngine(t) // no event source

	_, err := engine.TriggerForLead(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilLead)

	_, err = engine.TriggerForLead(context.Background(), &Lead{ID: "l", CampaignIDs: []string{"c1"}})
	assert.ErrorIs(t, err, ErrNoEventSource)
}

// TestTriggerForLead_MultipleCampaigns verifies events across several
// published campaigns are walked in one pass.
func TestTriggerForLead_MultipleCampaigns(t *testing.T) {
	c1 := publishedCampaign("c1", "ev-1")
	c2 := publishedCampaign("c2", "ev-2")
	engine, store, _ := newTestEngine(t, WithEventSource(NewMemoryEventSource(c1, c2)))
	lead := &Lead{
		ID:          "lead-1",
		DateAdded:   testNow.Add(-24 * time.Hour),
		CampaignIDs: []string{"c1", "c2"},
	}

	fired, err := engine.TriggerForLead(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, 2, fired)
	assert.Equal(t, 2, store.Len())
}
