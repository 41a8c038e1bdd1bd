package eventlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/campaignkit/pkg/campaign/eventlog"
)

var firedAt = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func entry(id, eventID, leadID string) eventlog.Entry {
	return eventlog.Entry{
		ID:         id,
		EventID:    eventID,
		LeadID:     leadID,
		CampaignID: "c1",
		FiredAt:    firedAt,
		IPAddress:  "203.0.113.7",
	}
}

func TestMemoryStore_AppendAndQuery(t *testing.T) {
	store := eventlog.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	inserted, err := store.Append(ctx, []eventlog.Entry{
		entry("1", "ev-1", "lead-1"),
		entry("2", "ev-2", "lead-1"),
		entry("3", "ev-1", "lead-2"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	applied, err := store.AppliedEventIDs(ctx, "lead-1")
	require.NoError(t, err)
	assert.Contains(t, applied, "ev-1")
	assert.Contains(t, applied, "ev-2")
	assert.Len(t, applied, 2)

	leads, err := store.LeadIDsForEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-1", "lead-2"}, leads)
}

func TestMemoryStore_DuplicatePairIgnored(t *testing.T) {
	store := eventlog.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	inserted, err := store.Append(ctx, []eventlog.Entry{entry("1", "ev-1", "lead-1")})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Same (event, lead) pair with a fresh row ID: ignored.
	inserted, err = store.Append(ctx, []eventlog.Entry{entry("2", "ev-1", "lead-1")})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_DuplicateWithinBatch(t *testing.T) {
	store := eventlog.NewMemoryStore()
	defer store.Close()

	inserted, err := store.Append(context.Background(), []eventlog.Entry{
		entry("1", "ev-1", "lead-1"),
		entry("2", "ev-1", "lead-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestMemoryStore_AppliedEventIDsForLeads(t *testing.T) {
	store := eventlog.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Append(ctx, []eventlog.Entry{
		entry("1", "ev-1", "lead-1"),
		entry("2", "ev-2", "lead-2"),
		entry("3", "ev-3", "lead-3"),
	})
	require.NoError(t, err)

	applied, err := store.AppliedEventIDsForLeads(ctx, []string{"lead-1", "lead-2"})
	require.NoError(t, err)
	assert.Contains(t, applied["lead-1"], "ev-1")
	assert.Contains(t, applied["lead-2"], "ev-2")
	assert.NotContains(t, applied, "lead-3")
}

func TestMemoryStore_Closed(t *testing.T) {
	store := eventlog.NewMemoryStore()
	require.NoError(t, store.Close())

	_, err := store.Append(context.Background(), []eventlog.Entry{entry("1", "e", "l")})
	assert.ErrorIs(t, err, eventlog.ErrStoreClosed)

	_, err = store.AppliedEventIDs(context.Background(), "l")
	assert.ErrorIs(t, err, eventlog.ErrStoreClosed)
}
