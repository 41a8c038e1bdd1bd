// Package registry provides the keyed lookup table behind the action
// handler registry: event types map to the handler that fires them.
//
// A registry is populated once at process start and treated as
// immutable afterwards; Register after init is safe but unusual.
// Lookups take a read lock only, so concurrent trigger evaluation is
// cheap.
package registry
