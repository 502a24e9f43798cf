package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Rubric is the scoring question set for a workshop. One rubric exists per
// workshop. Questions are encoded in the Question field as "Title: Description"
// blocks separated by blank lines; identifiers are positional, derived as
// "{rubricID}_{index}" with a 1-based index.
type Rubric struct {
	ID         uuid.UUID `json:"id"`
	WorkshopID uuid.UUID `json:"workshopId"`
	Question   string    `json:"question"`
	CreatedBy  uuid.UUID `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RubricQuestion is one parsed scoring question
type RubricQuestion struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Questions parses the encoded question text into individual questions with
// positionally derived identifiers.
func (r *Rubric) Questions() []RubricQuestion {
	var questions []RubricQuestion
	for _, block := range strings.Split(r.Question, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		q := RubricQuestion{
			ID: fmt.Sprintf("%s_%d", r.ID, len(questions)+1),
		}
		if title, desc, ok := strings.Cut(block, ":"); ok {
			q.Title = strings.TrimSpace(title)
			q.Description = strings.TrimSpace(desc)
		} else {
			q.Title = block
		}
		questions = append(questions, q)
	}
	return questions
}

// QuestionIDs returns the positional identifiers of all questions
func (r *Rubric) QuestionIDs() []string {
	questions := r.Questions()
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

// EncodeQuestions renders parsed questions back into the stored text form.
// Positional IDs are regenerated on the next parse, so dropping or inserting
// a question reassigns identifiers after it.
func EncodeQuestions(questions []RubricQuestion) string {
	blocks := make([]string, 0, len(questions))
	for _, q := range questions {
		if q.Description != "" {
			blocks = append(blocks, q.Title+": "+q.Description)
		} else {
			blocks = append(blocks, q.Title)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// RubricInput represents input for creating or replacing a rubric
type RubricInput struct {
	Question  string    `json:"question" validate:"required"`
	CreatedBy uuid.UUID `json:"createdBy" validate:"required"`
}
