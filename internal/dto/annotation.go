package dto

// SaveFindingRequest represents a discovery-phase finding submission
type SaveFindingRequest struct {
	TraceID string `json:"traceId" validate:"required"`
	Insight string `json:"insight" validate:"required"`
}

// SaveRubricRequest creates or replaces the workshop rubric
type SaveRubricRequest struct {
	Question string `json:"question" validate:"required"`
}

// UpdateRubricQuestionRequest edits one question within the rubric
type UpdateRubricQuestionRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
}

// SaveAnnotationRequest represents an annotation submission. Either Ratings
// (per rubric question) or the legacy scalar Rating must be present.
type SaveAnnotationRequest struct {
	TraceID string         `json:"traceId" validate:"required"`
	Ratings map[string]int `json:"ratings,omitempty" validate:"omitempty,dive,min=1,max=5"`
	Rating  int            `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment string         `json:"comment,omitempty"`
}
