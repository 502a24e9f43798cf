package domain

import (
	"time"

	"github.com/google/uuid"
)

// Annotation is one reviewer's judgment on one trace. Ratings is the
// canonical representation: rubric question ID to score. LegacyRating holds
// the pre-rubric single scalar for records written before per-question
// scoring existed; MigrateLegacyRatings copies it into Ratings once.
type Annotation struct {
	ID           uuid.UUID      `json:"id"`
	WorkshopID   uuid.UUID      `json:"workshopId"`
	TraceID      string         `json:"traceId"`
	UserID       uuid.UUID      `json:"userId"`
	Ratings      map[string]int `json:"ratings"`
	LegacyRating int            `json:"rating,omitempty"`
	Comment      string         `json:"comment,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Rating returns a representative scalar for the annotation: the legacy
// value when set, otherwise the score of the given question.
func (a *Annotation) Rating(questionID string) (int, bool) {
	if v, ok := a.Ratings[questionID]; ok {
		return v, true
	}
	if a.LegacyRating > 0 {
		return a.LegacyRating, true
	}
	return 0, false
}

// AnnotationInput represents input for submitting an annotation.
// Either Ratings or the legacy Rating scalar must be provided; the service
// canonicalizes a bare scalar into every rubric question key.
type AnnotationInput struct {
	TraceID string         `json:"traceId" validate:"required"`
	UserID  uuid.UUID      `json:"userId" validate:"required"`
	Rating  int            `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Ratings map[string]int `json:"ratings,omitempty"`
	Comment string         `json:"comment,omitempty"`
}

// MigrationResult reports the outcome of the legacy rating migration
type MigrationResult struct {
	AnnotationsMigrated int `json:"annotationsMigrated"`
	AnnotationsSkipped  int `json:"annotationsSkipped"`
}
