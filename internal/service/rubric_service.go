package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

// RubricService handles the workshop's singular rubric and its encoded
// question list
type RubricService struct {
	workshops WorkshopRepository
	rubrics   RubricRepository
	events    EventRepository
	realtime  *RealtimeService
}

// NewRubricService creates a new rubric service
func NewRubricService(workshops WorkshopRepository, rubrics RubricRepository, events EventRepository, realtime *RealtimeService) *RubricService {
	return &RubricService{
		workshops: workshops,
		rubrics:   rubrics,
		events:    events,
		realtime:  realtime,
	}
}

// Save creates the workshop rubric or replaces its question text
func (s *RubricService) Save(ctx context.Context, workshopID uuid.UUID, input *domain.RubricInput) (*domain.Rubric, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}

	now := time.Now()
	rubric := &domain.Rubric{
		ID:         uuid.New(),
		WorkshopID: workshopID,
		Question:   input.Question,
		CreatedBy:  input.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// replacing keeps the existing row's identity so question IDs stay stable
	if existing, err := s.rubrics.GetByWorkshop(ctx, workshopID); err == nil {
		rubric.ID = existing.ID
		rubric.CreatedAt = existing.CreatedAt
	}

	if err := s.rubrics.Upsert(ctx, rubric); err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, workshopID, &input.CreatedBy)
	return rubric, nil
}

// Get retrieves the workshop rubric
func (s *RubricService) Get(ctx context.Context, workshopID uuid.UUID) (*domain.Rubric, error) {
	return s.rubrics.GetByWorkshop(ctx, workshopID)
}

// Questions returns the rubric's parsed question list
func (s *RubricService) Questions(ctx context.Context, workshopID uuid.UUID) ([]domain.RubricQuestion, error) {
	rubric, err := s.rubrics.GetByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	return rubric.Questions(), nil
}

// UpdateQuestion edits one question in place, identified by its positional
// ID. Later questions keep their positions, so their IDs are unchanged.
func (s *RubricService) UpdateQuestion(ctx context.Context, workshopID uuid.UUID, questionID, title, description string, actorID uuid.UUID) (*domain.Rubric, error) {
	rubric, err := s.rubrics.GetByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	questions := rubric.Questions()
	found := false
	for i := range questions {
		if questions[i].ID == questionID {
			questions[i].Title = title
			questions[i].Description = description
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NotFound("rubric question")
	}

	rubric.Question = domain.EncodeQuestions(questions)
	rubric.UpdatedAt = time.Now()
	if err := s.rubrics.Upsert(ctx, rubric); err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, workshopID, &actorID)
	return rubric, nil
}

// DeleteQuestion removes one question by positional ID. Questions after it
// shift down, which reassigns their positional IDs on the next parse.
func (s *RubricService) DeleteQuestion(ctx context.Context, workshopID uuid.UUID, questionID string, actorID uuid.UUID) (*domain.Rubric, error) {
	rubric, err := s.rubrics.GetByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	questions := rubric.Questions()
	kept := questions[:0]
	found := false
	for _, q := range questions {
		if q.ID == questionID {
			found = true
			continue
		}
		kept = append(kept, q)
	}
	if !found {
		return nil, apperrors.NotFound("rubric question")
	}
	if len(kept) == 0 {
		return nil, apperrors.Precondition("cannot delete the last rubric question")
	}

	rubric.Question = domain.EncodeQuestions(kept)
	rubric.UpdatedAt = time.Now()
	if err := s.rubrics.Upsert(ctx, rubric); err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, workshopID, &actorID)
	return rubric, nil
}

// Delete removes the workshop rubric entirely
// Delete removes the workshop's rubric entirely
func (s *RubricService) Delete(ctx context.Context, workshopID uuid.UUID, actorID uuid.UUID) error {
	if err := s.rubrics.Delete(ctx, workshopID); err != nil {
		return err
	}
	s.notifyChanged(ctx, workshopID, &actorID)
	return nil
}

func (s *RubricService) notifyChanged(ctx context.Context, workshopID uuid.UUID, actorID *uuid.UUID) {
	if s.events != nil {
		s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       domain.EventRubricChanged,
			ActorID:    actorID,
		})
	}
	if s.realtime != nil {
		s.realtime.Publish(ctx, workshopID, string(domain.EventRubricChanged), nil)
	}
}
