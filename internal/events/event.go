// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"tel_handoff_backend/platform/events"
)

// Re-export base types for convenience
type (
	Event     = events.Event
	Handler   = events.Handler
	BaseEvent = events.BaseEvent
)

// HandlerFunc re-exports the platform handler adapter.
type HandlerFunc = events.HandlerFunc

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Handoff Domain Events
// =============================================================================

const (
	HandoffResolvedEvent = "handoff.resolved"
	HandoffRejectedEvent = "handoff.rejected"
)

// HandoffResolved is published when a tel: candidate became a WhatsApp link.
type HandoffResolved struct {
	BaseEvent
	Region      string `json:"region"`
	LineType    string `json:"lineType"`
	CallingCode string `json:"callingCode"`
	Source      string `json:"source"`
}

func (e HandoffResolved) EventName() string { return HandoffResolvedEvent }

// HandoffRejected is published when a tel: candidate could not be resolved.
type HandoffRejected struct {
	BaseEvent
	Reason      string `json:"reason"`
	CallingCode string `json:"callingCode"`
	Source      string `json:"source"`
}

func (e HandoffRejected) EventName() string { return HandoffRejectedEvent }
