// Package eventlog persists the record of which campaign events have
// fired for which leads, the basis of the engine's at-most-once
// guarantee.
package eventlog

import (
	"context"
	"errors"
	"time"
)

// Entry records that an event fired for a lead. Entries are written
// once and never mutated.
type Entry struct {
	// ID uniquely identifies the log row.
	ID string

	// EventID is the event that fired.
	EventID string

	// LeadID is the lead it fired for.
	LeadID string

	// CampaignID is the event's owning campaign, denormalized for
	// reporting queries.
	CampaignID string

	// FiredAt is the firing timestamp.
	FiredAt time.Time

	// IPAddress is the origin IP of the firing session.
	IPAddress string
}

// Store persists event log entries.
//
// Append must enforce uniqueness of (EventID, LeadID) atomically:
// a duplicate pair is ignored, not inserted twice and not an error.
// Concurrent callers racing a read-check against an insert therefore
// cannot double-fire an event. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append writes a batch of entries atomically, ignoring entries
	// whose (EventID, LeadID) pair already exists. Returns the number
	// of rows actually inserted.
	Append(ctx context.Context, entries []Entry) (int, error)

	// AppliedEventIDs returns the set of event IDs already fired for a
	// lead.
	AppliedEventIDs(ctx context.Context, leadID string) (map[string]struct{}, error)

	// AppliedEventIDsForLeads returns the applied event-ID set per
	// lead, in one bulk query.
	AppliedEventIDsForLeads(ctx context.Context, leadIDs []string) (map[string]map[string]struct{}, error)

	// LeadIDsForEvent returns the IDs of leads the event has already
	// fired for. Backfill uses this as an exclusion filter.
	LeadIDsForEvent(ctx context.Context, eventID string) ([]string, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("event log store closed")
)
