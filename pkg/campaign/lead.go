package campaign

import (
	"context"
	"slices"
	"sort"
	"time"
)

// Lead is the external entity events fire for. The engine only reads
// identity, campaign membership, and the attributes enrollment filters
// use; lead storage is a collaborator concern.
type Lead struct {
	// ID uniquely identifies the lead.
	ID string

	// DateAdded is when the lead was first seen.
	DateAdded time.Time

	// CampaignIDs lists the campaigns the lead belongs to.
	CampaignIDs []string

	// Attributes carries additional lead fields for handlers.
	Attributes map[string]any
}

// InCampaign reports whether the lead belongs to the given campaign.
func (l *Lead) InCampaign(campaignID string) bool {
	return slices.Contains(l.CampaignIDs, campaignID)
}

// EnrollmentQuery selects leads a backfill should enroll.
type EnrollmentQuery struct {
	// CampaignID restricts to leads belonging to this campaign.
	CampaignID string

	// AddedBefore restricts to leads added on or before this instant.
	AddedBefore time.Time

	// ExcludeLeadIDs removes leads that already have a log row for the
	// event being backfilled.
	ExcludeLeadIDs []string
}

// LeadSource streams leads matching an enrollment query.
// Implementations should page internally; result sets can be large.
type LeadSource interface {
	// FindEnrollable returns a cursor over matching leads.
	FindEnrollable(ctx context.Context, q EnrollmentQuery) (LeadCursor, error)
}

// LeadCursor iterates a lead result set, sql.Rows style.
type LeadCursor interface {
	// Next returns the next lead, or false when exhausted.
	Next() (*Lead, bool)

	// Err returns the first error encountered during iteration.
	Err() error

	// Close releases cursor resources.
	Close() error
}

// EventSource fetches persisted events for the trigger runners.
type EventSource interface {
	// PublishedEvents returns all events of published campaigns among
	// the given campaign IDs, in one bulk query.
	PublishedEvents(ctx context.Context, campaignIDs []string) ([]*Event, error)
}

// MemoryLeadSource is an in-memory LeadSource for tests and demos.
type MemoryLeadSource struct {
	leads []*Lead
}

// NewMemoryLeadSource creates a lead source over the given leads.
func NewMemoryLeadSource(leads ...*Lead) *MemoryLeadSource {
	return &MemoryLeadSource{leads: leads}
}

// Add appends a lead to the source.
func (s *MemoryLeadSource) Add(l *Lead) {
	s.leads = append(s.leads, l)
}

// FindEnrollable implements LeadSource. Leads are returned in ID order
// for reproducible runs.
func (s *MemoryLeadSource) FindEnrollable(ctx context.Context, q EnrollmentQuery) (LeadCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []*Lead
	for _, l := range s.leads {
		if !q.AddedBefore.IsZero() && l.DateAdded.After(q.AddedBefore) {
			continue
		}
		if q.CampaignID != "" && !l.InCampaign(q.CampaignID) {
			continue
		}
		if slices.Contains(q.ExcludeLeadIDs, l.ID) {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	return &sliceCursor{leads: matched}, nil
}

// sliceCursor is a LeadCursor over an in-memory slice.
type sliceCursor struct {
	leads []*Lead
	pos   int
}

// Next implements LeadCursor.
func (c *sliceCursor) Next() (*Lead, bool) {
	if c.pos >= len(c.leads) {
		return nil, false
	}
	l := c.leads[c.pos]
	c.pos++
	return l, true
}

// Err implements LeadCursor.
func (c *sliceCursor) Err() error { return nil }

// Close implements LeadCursor.
func (c *sliceCursor) Close() error { return nil }

// MemoryEventSource is an in-memory EventSource backed by a set of
// campaigns.
type MemoryEventSource struct {
	campaigns []*Campaign
}

// NewMemoryEventSource creates an event source over the given
// campaigns.
func NewMemoryEventSource(campaigns ...*Campaign) *MemoryEventSource {
	return &MemoryEventSource{campaigns: campaigns}
}

// PublishedEvents implements EventSource.
func (s *MemoryEventSource) PublishedEvents(ctx context.Context, campaignIDs []string) ([]*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []*Event
	for _, c := range s.campaigns {
		if !c.Published || !slices.Contains(campaignIDs, c.ID) {
			continue
		}
		events = append(events, c.OrderedEvents()...)
	}
	return events, nil
}
