package registry

import (
	"sort"
	"sync"
)

// Registry is a thread-safe lookup table from keys to values.
// The campaign engine instantiates it with event-type keys and action
// handler values.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// New creates an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// Register adds or replaces the value for a key. Call during process
// startup; the registry is meant to be read-only once triggering
// begins.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

// Lookup returns the value for a key and whether it is registered.
func (r *Registry[K, V]) Lookup(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Has reports whether a key is registered.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Len returns the number of registered entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns all registered keys. The order is not guaranteed.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}

// Range iterates over a snapshot of the registry, so registering
// during iteration does not affect the current pass. Iteration stops
// when fn returns false. Keys with an ordering iterate in sorted order
// when possible; otherwise the order is unspecified.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	snapshot := make(map[K]V, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	keys := make([]K, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sortKeys(keys)

	for _, k := range keys {
		if !fn(k, snapshot[k]) {
			return
		}
	}
}

// sortKeys orders string keys for stable Range iteration; other key
// types keep map order.
func sortKeys[K comparable](keys []K) {
	if ss, ok := any(keys).([]string); ok {
		sort.Strings(ss)
	}
}
