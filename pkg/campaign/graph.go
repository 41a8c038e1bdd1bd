package campaign

import (
	"math"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// RootKey is the sentinel parent key marking a root entry in an order
// list.
const RootKey = "null"

// EventDiff is one entry of a client-submitted event diff, keyed in the
// diff map by a client-local event key.
type EventDiff struct {
	// ID references an existing event. Empty or unmatched means a new
	// event is created.
	ID string

	// Fields assigns event fields by name: "type" and "name" set the
	// corresponding fields, "properties" merges a map into the event's
	// property bag, and any other key is stored as a single property.
	// The reserved names "id", "order", and "parent" are ignored; order
	// and parent are derived from the order list instead.
	Fields map[string]any
}

// OrderEntry places one event in the rebuilt tree: Child is the
// event's client key, Parent is its parent's client key or RootKey for
// roots. Entries are processed in slice order, which makes rebuilds
// reproducible where a map would not be.
type OrderEntry struct {
	Child  string
	Parent string
}

// orderState tracks the per-parent order counters during a rebuild.
// Counters are kept in integer hundredths so repeated child increments
// do not accumulate float error.
type orderState struct {
	counters map[string]int64
	children map[string]int
}

func newOrderState() *orderState {
	return &orderState{
		counters: make(map[string]int64),
		children: make(map[string]int),
	}
}

// counter returns the counter for key, lazily initialized to 1.
func (s *orderState) counter(key string) int64 {
	if c, ok := s.counters[key]; ok {
		return c
	}
	return 100
}

// nextRoot advances the root counter by a whole unit.
func (s *orderState) nextRoot() float64 {
	c := s.counter(RootKey) + 100
	s.counters[RootKey] = c
	return float64(c) / 100
}

// nextChild advances parentKey's counter by one hundredth, keeping the
// child inside the band between the parent's own order and the next
// whole number. The band holds 99 children.
func (s *orderState) nextChild(parentKey string) (float64, error) {
	s.children[parentKey]++
	if s.children[parentKey] > 99 {
		return 0, ErrOrderOverflow
	}
	c := s.counter(parentKey) + 1
	s.counters[parentKey] = c
	return float64(c) / 100, nil
}

// seed anchors key's counter at the order just assigned to it, so the
// event's own children start from its position. Later entries never
// rewind an existing counter.
func (s *orderState) seed(key string, order float64) {
	if _, ok := s.counters[key]; !ok {
		s.counters[key] = int64(math.Round(order * 100))
	}
}

// RebuildEvents reconstructs a campaign's event tree from a client
// diff.
//
// Deleted IDs are detached first. Each diff entry then either reuses
// the existing event it references or materializes a new one, applies
// its fields, and attaches it to the campaign. Finally order and parent
// are assigned per order entry: roots advance a whole-number counter,
// children advance their parent's counter by 0.01, and any event whose
// pre-update ancestor chain crosses a deleted event is pruned along
// with its subtree.
//
// When order is empty the existing parent links are reused, visiting
// diff entries in sorted key order. Order entries referencing a client
// key that never materialized are skipped (the client deleted the
// event); conversely, diff entries the order list never references are
// detached and dropped, also a client-side deletion. A parent key that
// never materialized leaves the child's previous parent pointer
// untouched, by design a silent no-op.
//
// Returns the surviving events keyed by client key and the IDs of
// pruned events. The only error is ErrOrderOverflow when a parent
// exceeds 99 children.
func RebuildEvents(c *Campaign, diff map[string]EventDiff, order []OrderEntry, deletedIDs []string) (map[string]*Event, []string, error) {
	for _, id := range deletedIDs {
		c.RemoveEvent(id)
	}

	// Materialize events from the diff. Sorted key order keeps new-ID
	// assignment and the implicit ordering below deterministic.
	keys := make([]string, 0, len(diff))
	for k := range diff {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	events := make(map[string]*Event, len(diff))
	byID := make(map[string]*Event, len(diff))
	for _, key := range keys {
		d := diff[key]

		var event *Event
		if d.ID != "" {
			if existing, ok := c.Event(d.ID); ok {
				event = existing
			}
		}
		if event == nil {
			event = &Event{ID: uuid.New().String()}
		}

		applyFields(event, d.Fields)
		c.AddEvent(event)

		events[key] = event
		byID[event.ID] = event
	}

	if len(order) == 0 {
		order = deriveOrder(keys, events, byID)
	}

	state := newOrderState()
	ordered := make(map[string]bool, len(order))
	var pruned []string
	for _, entry := range order {
		ordered[entry.Child] = true
		event, ok := events[entry.Child]
		if !ok {
			// Likely deleted client-side.
			continue
		}

		if ancestorDeleted(event, byID, deletedIDs) {
			c.RemoveEvent(event.ID)
			delete(events, entry.Child)
			pruned = append(pruned, event.ID)
			continue
		}

		var o float64
		if entry.Parent == RootKey {
			o = state.nextRoot()
		} else {
			var err error
			o, err = state.nextChild(entry.Parent)
			if err != nil {
				return nil, nil, err
			}
		}
		event.Order = o
		state.seed(entry.Child, o)

		if entry.Parent == RootKey {
			event.Parent = nil
		} else if parent, ok := events[entry.Parent]; ok && !onParentChain(parent, event) {
			event.Parent = parent
		}
	}

	// Diff entries the order list never referenced were deleted
	// client-side; detach them so they cannot persist with order 0.
	for key, event := range events {
		if ordered[key] {
			continue
		}
		c.RemoveEvent(event.ID)
		delete(events, key)
	}

	return events, pruned, nil
}

// applyFields copies diff fields onto the event by name. Reserved
// names are skipped; unknown structural names become properties.
func applyFields(event *Event, fields map[string]any) {
	for name, value := range fields {
		switch name {
		case "id", "order", "parent":
			// Reserved, handled by the order pass.
		case "type":
			if s, ok := value.(string); ok {
				event.Type = s
			}
		case "name":
			if s, ok := value.(string); ok {
				event.Name = s
			}
		case "properties":
			if m, ok := value.(map[string]any); ok {
				if event.Properties == nil {
					event.Properties = make(map[string]any, len(m))
				}
				for k, v := range m {
					event.Properties[k] = v
				}
			}
		default:
			if event.Properties == nil {
				event.Properties = make(map[string]any)
			}
			event.Properties[name] = value
		}
	}
}

// deriveOrder rebuilds an order list from the events' existing parent
// links when the client did not reorder.
func deriveOrder(keys []string, events map[string]*Event, byID map[string]*Event) []OrderEntry {
	keyByID := make(map[string]string, len(events))
	for key, e := range events {
		keyByID[e.ID] = key
	}

	order := make([]OrderEntry, 0, len(keys))
	for _, key := range keys {
		parentKey := RootKey
		if p := events[key].Parent; p != nil {
			if k, ok := keyByID[p.ID]; ok {
				parentKey = k
			}
		}
		order = append(order, OrderEntry{Child: key, Parent: parentKey})
	}
	return order
}

// ancestorDeleted walks the event's pre-update parent chain and
// reports whether any ancestor was deleted in this diff. The walk
// follows the materialized event for each ancestor when present so it
// observes the chain as persisted before this rebuild mutates it. A
// visited set bounds the walk when persisted data already carries a
// cycle.
func ancestorDeleted(event *Event, byID map[string]*Event, deletedIDs []string) bool {
	seen := make(map[string]bool)
	parent := event.Parent
	for parent != nil && !seen[parent.ID] {
		if slices.Contains(deletedIDs, parent.ID) {
			return true
		}
		seen[parent.ID] = true
		if next, ok := byID[parent.ID]; ok {
			parent = next.Parent
		} else {
			parent = parent.Parent
		}
	}
	return false
}

// onParentChain reports whether target is from itself or appears on
// from's parent chain. Guards parent assignment against malformed
// client input that would link two events into a cycle; such an entry
// keeps the child's previous parent instead.
func onParentChain(from, target *Event) bool {
	visited := make(map[string]bool)
	for e := from; e != nil && !visited[e.ID]; e = e.Parent {
		if e.ID == target.ID {
			return true
		}
		visited[e.ID] = true
	}
	return false
}
