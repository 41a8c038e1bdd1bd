package eventlog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory event log for tests and demos. Data is
// lost when the process exits. It enforces the same (event, lead)
// uniqueness as the SQLite store, under its mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	byPair  map[string]map[string]bool // eventID -> leadID -> present
	closed  bool
}

// NewMemoryStore creates an empty in-memory event log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byPair: make(map[string]map[string]bool),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(ctx context.Context, entries []Entry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	inserted := 0
	for _, e := range entries {
		if m.byPair[e.EventID][e.LeadID] {
			continue
		}
		if m.byPair[e.EventID] == nil {
			m.byPair[e.EventID] = make(map[string]bool)
		}
		m.byPair[e.EventID][e.LeadID] = true
		m.entries = append(m.entries, e)
		inserted++
	}
	return inserted, nil
}

// AppliedEventIDs implements Store.
func (m *MemoryStore) AppliedEventIDs(ctx context.Context, leadID string) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	applied := make(map[string]struct{})
	for _, e := range m.entries {
		if e.LeadID == leadID {
			applied[e.EventID] = struct{}{}
		}
	}
	return applied, nil
}

// AppliedEventIDsForLeads implements Store.
func (m *MemoryStore) AppliedEventIDsForLeads(ctx context.Context, leadIDs []string) (map[string]map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	want := make(map[string]bool, len(leadIDs))
	for _, id := range leadIDs {
		want[id] = true
	}

	applied := make(map[string]map[string]struct{}, len(leadIDs))
	for _, e := range m.entries {
		if !want[e.LeadID] {
			continue
		}
		if applied[e.LeadID] == nil {
			applied[e.LeadID] = make(map[string]struct{})
		}
		applied[e.LeadID][e.EventID] = struct{}{}
	}
	return applied, nil
}

// LeadIDsForEvent implements Store.
func (m *MemoryStore) LeadIDsForEvent(ctx context.Context, eventID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	leads := make([]string, 0, len(m.byPair[eventID]))
	for leadID := range m.byPair[eventID] {
		leads = append(leads, leadID)
	}
	sort.Strings(leads)
	return leads, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	m.byPair = nil
	return nil
}

// Len returns the number of stored entries. Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns a copy of all stored entries in insertion order.
// Useful for testing.
func (m *MemoryStore) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
