package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trace represents one captured input/output interaction record under review.
// Traces are immutable once created; the state machine only selects them
// into or out of active sets. Seq is assigned by storage and provides the
// canonical chronological order (creation order, ties broken by insertion).
type Trace struct {
	ID         string         `json:"id"`
	WorkshopID uuid.UUID      `json:"workshopId"`
	Input      string         `json:"input"`
	Output     string         `json:"output"`
	Context    map[string]any `json:"context,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	// Provenance of traces pulled from the external trace server.
	ExternalTraceID string `json:"externalTraceId,omitempty"`
	ExternalURL     string `json:"externalUrl,omitempty"`
	ExternalHost    string `json:"externalHost,omitempty"`
	ExperimentID    string `json:"experimentId,omitempty"`

	Seq       int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// TraceInput represents input for uploading a trace
type TraceInput struct {
	Input    string         `json:"input" validate:"required"`
	Output   string         `json:"output" validate:"required"`
	Context  map[string]any `json:"context,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	ExternalTraceID string `json:"externalTraceId,omitempty"`
	ExternalURL     string `json:"externalUrl,omitempty"`
	ExternalHost    string `json:"externalHost,omitempty"`
	ExperimentID    string `json:"experimentId,omitempty"`
}

// TraceIDs extracts the identifiers of traces, preserving order.
func TraceIDs(traces []Trace) []string {
	ids := make([]string, len(traces))
	for i, t := range traces {
		ids[i] = t.ID
	}
	return ids
}
