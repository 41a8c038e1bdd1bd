package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/campaignkit/pkg/campaign/registry"
)

// Handler is the pluggable unit of behavior an event type delegates to
// when fired. Handlers receive a fixed EventContext rather than a
// reflected argument list; returning an error marks the firing as
// failed and no log entry is recorded for the lead.
type Handler func(ctx context.Context, ec EventContext) error

// HandlerInfo describes a registered event type.
type HandlerInfo struct {
	// Do is the handler invoked when an event of this type fires.
	Do Handler

	// Description explains the event type for authoring surfaces.
	Description string
}

// HandlerRegistry maps event types to their handlers.
type HandlerRegistry = registry.Registry[string, HandlerInfo]

// NewHandlerRegistry creates an empty handler registry.
func NewHandlerRegistry() *HandlerRegistry {
	return registry.New[string, HandlerInfo]()
}

// EventContext is the fixed argument bag a handler receives.
type EventContext struct {
	// Event summarizes the firing event and its owning campaign.
	Event EventSummary

	// Lead is the lead the event fires for.
	Lead *Lead

	// Logger is the engine's logger, enriched with event and lead
	// fields. Never nil.
	Logger *slog.Logger

	// Now is the firing timestamp from the engine's clock.
	Now time.Time
}

// EventSummary carries the event fields exposed to handlers.
type EventSummary struct {
	ID         string
	Type       string
	Name       string
	Properties map[string]any
	Campaign   CampaignSummary
}

// CampaignSummary identifies the owning campaign inside an event
// summary.
type CampaignSummary struct {
	ID   string
	Name string
}

// defaultHandlers is the process-wide registry, populated once at
// startup by collaborators that contribute event types.
var defaultHandlers = NewHandlerRegistry()

// DefaultHandlers returns the process-wide handler registry. Engines
// built without WithHandlers resolve event types against it.
func DefaultHandlers() *HandlerRegistry {
	return defaultHandlers
}

// RegisterHandler adds an event type to the process-wide registry.
func RegisterHandler(eventType string, info HandlerInfo) error {
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}
	if info.Do == nil {
		return fmt.Errorf("handler for %s cannot be nil", eventType)
	}
	defaultHandlers.Register(eventType, info)
	return nil
}

// MustRegisterHandler adds an event type to the process-wide registry,
// panicking on error. Intended for init-time registration.
func MustRegisterHandler(eventType string, info HandlerInfo) {
	if err := RegisterHandler(eventType, info); err != nil {
		panic(fmt.Sprintf("failed to register handler: %v", err))
	}
}
