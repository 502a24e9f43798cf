package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workshop is the aggregate root coordinating one review exercise.
// It exclusively owns the two active-set lists and the completed-phase set;
// nothing else mutates them. Version backs optimistic concurrency: every
// state write carries the version it read, and a mismatch is a conflict.
type Workshop struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	FacilitatorID uuid.UUID      `json:"facilitatorId"`
	Status        WorkshopStatus `json:"status"`
	CurrentPhase  Phase          `json:"currentPhase"`

	// CompletedPhases is a set of phase labels marked done for navigation;
	// it is independent of CurrentPhase.
	CompletedPhases []Phase `json:"completedPhases"`

	DiscoveryStarted  bool `json:"discoveryStarted"`
	AnnotationStarted bool `json:"annotationStarted"`

	// Active sets: ordered, duplicate-free subsets of the workshop's traces.
	ActiveDiscoveryTraceIDs  []string `json:"activeDiscoveryTraceIds"`
	ActiveAnnotationTraceIDs []string `json:"activeAnnotationTraceIds"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasCompletedPhase reports whether the phase is in the completed set
func (w *Workshop) HasCompletedPhase(p Phase) bool {
	for _, c := range w.CompletedPhases {
		if c == p {
			return true
		}
	}
	return false
}

// MarkPhaseCompleted adds the phase to the completed set; idempotent.
func (w *Workshop) MarkPhaseCompleted(p Phase) {
	if !w.HasCompletedPhase(p) {
		w.CompletedPhases = append(w.CompletedPhases, p)
	}
}

// UnmarkPhaseCompleted removes the phase from the completed set; idempotent.
func (w *Workshop) UnmarkPhaseCompleted(p Phase) {
	out := w.CompletedPhases[:0]
	for _, c := range w.CompletedPhases {
		if c != p {
			out = append(out, c)
		}
	}
	w.CompletedPhases = out
}

// ActiveTraceIDs returns the active set for the given phase. Only discovery
// and annotation carry active sets.
func (w *Workshop) ActiveTraceIDs(p Phase) ([]string, bool) {
	switch p {
	case PhaseDiscovery:
		return w.ActiveDiscoveryTraceIDs, true
	case PhaseAnnotation:
		return w.ActiveAnnotationTraceIDs, true
	}
	return nil, false
}

// WorkshopInput represents input for creating a workshop
type WorkshopInput struct {
	Name          string    `json:"name" validate:"required"`
	Description   *string   `json:"description,omitempty"`
	FacilitatorID uuid.UUID `json:"facilitatorId" validate:"required"`
}

// WorkshopList represents a list of workshops
type WorkshopList struct {
	Workshops  []Workshop `json:"workshops"`
	TotalCount int64      `json:"totalCount"`
}

// DiscoveryStartResult reports the outcome of starting the discovery phase
type DiscoveryStartResult struct {
	TotalTraces int  `json:"totalTraces"`
	TracesUsed  int  `json:"tracesUsed"`
	Limit       int  `json:"limit"`
	Phase       Phase `json:"phase"`
}

// AnnotationStartResult reports the outcome of starting the annotation phase
type AnnotationStartResult struct {
	TotalTraces int  `json:"totalTraces"`
	TracesUsed  int  `json:"tracesUsed"`
	Limit       int  `json:"limit"`
	Phase       Phase `json:"phase"`
}

// AddTracesResult reports the outcome of growing an active set.
// TracesAdded == 0 with a nil error means the complement was empty.
type AddTracesResult struct {
	TracesAdded              int   `json:"tracesAdded"`
	TotalActiveTraces        int   `json:"totalActiveTraces"`
	AvailableTracesRemaining int   `json:"availableTracesRemaining"`
	Phase                    Phase `json:"phase"`
}

// ReorderResult reports the outcome of reordering the annotation active set
type ReorderResult struct {
	ReorderedCount int      `json:"reorderedCount"`
	Order          []string `json:"order"`
}

// AdvanceResult reports the outcome of a phase advancement
type AdvanceResult struct {
	Phase          Phase `json:"phase"`
	AlreadyInPhase bool  `json:"alreadyInPhase"`

	// Counts for UI confirmation text; only the one relevant to the
	// transition is populated.
	TracesAvailable      int `json:"tracesAvailable,omitempty"`
	FindingsCollected    int `json:"findingsCollected,omitempty"`
	AnnotationsCollected int `json:"annotationsCollected,omitempty"`
}

// PhaseCompletionResult reports the updated completed-phase set
type PhaseCompletionResult struct {
	CompletedPhases []Phase `json:"completedPhases"`
	CurrentPhase    Phase   `json:"currentPhase"`
}
