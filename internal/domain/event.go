package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkshopEvent is one entry in the append-only workshop event log. The
// phase controller writes an event on every successful mutation; the log
// doubles as the audit trail and the SSE replay source.
type WorkshopEvent struct {
	ID         uuid.UUID      `json:"id"`
	WorkshopID uuid.UUID      `json:"workshopId"`
	Type       EventType      `json:"type"`
	ActorID    *uuid.UUID     `json:"actorId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// WorkshopEventInput represents input for appending an event
type WorkshopEventInput struct {
	WorkshopID uuid.UUID
	Type       EventType
	ActorID    *uuid.UUID
	Details    map[string]any
}
