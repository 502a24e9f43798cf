package domain

import (
	"time"

	"github.com/google/uuid"
)

// Finding is a free-text discovery-phase observation tied to a trace
type Finding struct {
	ID         uuid.UUID `json:"id"`
	WorkshopID uuid.UUID `json:"workshopId"`
	TraceID    string    `json:"traceId"`
	UserID     uuid.UUID `json:"userId"`
	Insight    string    `json:"insight"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FindingInput represents input for submitting a finding
type FindingInput struct {
	TraceID string    `json:"traceId" validate:"required"`
	UserID  uuid.UUID `json:"userId" validate:"required"`
	Insight string    `json:"insight" validate:"required"`
}
