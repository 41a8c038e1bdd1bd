package campaign

import (
	"sort"
	"time"
)

// Campaign is a published or draft set of ordered events applied to
// leads matching its enrollment window.
type Campaign struct {
	// ID uniquely identifies the campaign.
	ID string

	// Name is the display name.
	Name string

	// Published reports whether the campaign is live. Only published
	// campaigns are walked by the trigger runners.
	Published bool

	// CreatedAt is the campaign's creation time. Backfill enrolls only
	// leads added on or before this instant.
	CreatedAt time.Time

	// TriggerExistingLeads requests a backfill on publish: events are
	// applied retroactively to leads that already match the enrollment
	// window.
	TriggerExistingLeads bool

	// events holds the campaign's events keyed by event ID.
	events map[string]*Event
}

// Event is a single action node in a campaign's tree.
type Event struct {
	// ID uniquely identifies the event.
	ID string

	// Type keys into the handler registry (e.g., "send_email").
	Type string

	// Name is the display name.
	Name string

	// Properties carries handler-specific configuration. Use the props
	// package for typed access.
	Properties map[string]any

	// Order is a fractional sort key encoding tree position: roots get
	// whole numbers, children cluster in a two-decimal band above their
	// parent. Sorting by Order reconstructs a pre-order traversal
	// without a separate depth field. Not globally unique.
	Order float64

	// Parent points to another event in the same campaign, or nil for
	// roots. The parent relation within one campaign is always a
	// forest.
	Parent *Event

	// Campaign is the owning campaign. Set when the event is attached.
	Campaign *Campaign
}

// AddEvent attaches an event to the campaign, replacing any event with
// the same ID.
func (c *Campaign) AddEvent(e *Event) {
	if c.events == nil {
		c.events = make(map[string]*Event)
	}
	e.Campaign = c
	c.events[e.ID] = e
}

// RemoveEvent detaches the event with the given ID. Removing an
// unknown ID is a no-op.
func (c *Campaign) RemoveEvent(id string) {
	if e, ok := c.events[id]; ok {
		e.Campaign = nil
		delete(c.events, id)
	}
}

// Event returns the attached event with the given ID.
func (c *Campaign) Event(id string) (*Event, bool) {
	e, ok := c.events[id]
	return e, ok
}

// Events returns the attached events keyed by ID. The returned map is
// the campaign's own storage; callers must not mutate it directly.
func (c *Campaign) Events() map[string]*Event {
	return c.events
}

// OrderedEvents returns the attached events sorted by order key, ties
// broken by ID. The result approximates a pre-order traversal of the
// event tree.
func (c *Campaign) OrderedEvents() []*Event {
	events := make([]*Event, 0, len(c.events))
	for _, e := range c.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Order != events[j].Order {
			return events[i].Order < events[j].Order
		}
		return events[i].ID < events[j].ID
	})
	return events
}

// Summary returns the campaign fields handlers receive.
func (c *Campaign) Summary() CampaignSummary {
	return CampaignSummary{ID: c.ID, Name: c.Name}
}
