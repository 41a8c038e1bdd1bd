package campaign

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph rebuilding.
var (
	// ErrOrderOverflow indicates a parent accumulated more than 99
	// children, exhausting the two-decimal order band between it and
	// its next sibling.
	ErrOrderOverflow = errors.New("order band exhausted: more than 99 children under one parent")
)

// Sentinel errors for engine configuration.
var (
	// ErrNoLeadSource indicates a backfill ran without a LeadSource
	// configured.
	ErrNoLeadSource = errors.New("no lead source configured")

	// ErrNoEventSource indicates TriggerForLead ran without an
	// EventSource configured.
	ErrNoEventSource = errors.New("no event source configured")

	// ErrNilLead indicates a trigger operation received a nil lead.
	ErrNilLead = errors.New("lead cannot be nil")
)

// UnsupportedEntityError indicates a campaign-scoped operation received
// an entity of the wrong kind. This is a programmer error, never
// swallowed.
type UnsupportedEntityError struct {
	// Got describes the type that was passed.
	Got string
}

// Error implements the error interface.
func (e *UnsupportedEntityError) Error() string {
	return fmt.Sprintf("unsupported entity kind %s: want *campaign.Campaign", e.Got)
}

// HandlerPanicError captures panic information from a handler
// invocation. The engine recovers handler panics so one event cannot
// abort a batch walk.
type HandlerPanicError struct {
	// EventType is the type whose handler panicked.
	EventType string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("handler for %s panicked: %v", e.EventType, e.Value)
}
