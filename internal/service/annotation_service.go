package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/metrics"
)

// AnnotationService handles annotation submissions. The per-question ratings
// map is the canonical representation; a bare legacy scalar is canonicalized
// into every rubric question key on save.
type AnnotationService struct {
	workshops   WorkshopRepository
	traces      TraceRepository
	rubrics     RubricRepository
	annotations AnnotationRepository
	events      EventRepository
	realtime    *RealtimeService
}

// NewAnnotationService creates a new annotation service
func NewAnnotationService(workshops WorkshopRepository, traces TraceRepository, rubrics RubricRepository, annotations AnnotationRepository, events EventRepository, realtime *RealtimeService) *AnnotationService {
	return &AnnotationService{
		workshops:   workshops,
		traces:      traces,
		rubrics:     rubrics,
		annotations: annotations,
		events:      events,
		realtime:    realtime,
	}
}

// Save records an annotation, replacing the user's prior annotation on the
// same trace. Either input.Ratings or the legacy scalar must be present.
func (s *AnnotationService) Save(ctx context.Context, workshopID uuid.UUID, input *domain.AnnotationInput) (*domain.Annotation, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	if _, err := s.traces.GetByID(ctx, workshopID, input.TraceID); err != nil {
		return nil, err
	}

	rubric, err := s.rubrics.GetByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	ratings, err := canonicalizeRatings(rubric, input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	annotation := &domain.Annotation{
		ID:         uuid.New(),
		WorkshopID: workshopID,
		TraceID:    input.TraceID,
		UserID:     input.UserID,
		Ratings:    ratings,
		Comment:    input.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.annotations.Upsert(ctx, annotation); err != nil {
		return nil, err
	}

	metrics.RecordAnnotationSubmitted(workshopID.String())
	if s.events != nil {
		s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       domain.EventAnnotationSaved,
			ActorID:    &input.UserID,
			Details:    map[string]any{"traceId": input.TraceID},
		})
	}
	if s.realtime != nil {
		s.realtime.Publish(ctx, workshopID, string(domain.EventAnnotationSaved), map[string]any{
			"traceId": input.TraceID,
			"userId":  input.UserID.String(),
		})
	}

	return annotation, nil
}

// List returns annotations scoped by the caller's permissions
func (s *AnnotationService) List(ctx context.Context, workshopID, userID uuid.UUID, perms domain.Permissions) ([]domain.Annotation, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	if perms.CanViewAllAnnotations {
		return s.annotations.ListByWorkshop(ctx, workshopID)
	}
	return s.annotations.ListByUser(ctx, workshopID, userID)
}

// Clear wipes every annotation in the workshop and returns how many were
// removed. Intended for facilitators restarting the annotation phase.
func (s *AnnotationService) Clear(ctx context.Context, workshopID uuid.UUID, actorID uuid.UUID) (int, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return 0, err
	}

	removed, err := s.annotations.DeleteByWorkshop(ctx, workshopID)
	if err != nil {
		return 0, err
	}

	if s.events != nil {
		s.events.Append(ctx, &domain.WorkshopEventInput{
			WorkshopID: workshopID,
			Type:       domain.EventAnnotationsCleared,
			ActorID:    &actorID,
			Details:    map[string]any{"removed": removed},
		})
	}
	if s.realtime != nil {
		s.realtime.Publish(ctx, workshopID, string(domain.EventAnnotationsCleared), map[string]any{
			"removed": removed,
		})
	}

	return removed, nil
}

// Progress returns per-trace annotation coverage for the active annotation
// set, most reviewed first
func (s *AnnotationService) Progress(ctx context.Context, workshopID uuid.UUID) ([]TraceProgress, error) {
	workshop, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	annotations, err := s.annotations.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	return rankByProgress(workshop.ActiveAnnotationTraceIDs, annotations), nil
}

// MigrateLegacyRatings copies each annotation's legacy scalar into every
// rubric question key, once. Annotations that already carry a ratings map
// are skipped.
func (s *AnnotationService) MigrateLegacyRatings(ctx context.Context, workshopID uuid.UUID) (*domain.MigrationResult, error) {
	rubric, err := s.rubrics.GetByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	questionIDs := rubric.QuestionIDs()

	annotations, err := s.annotations.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	result := &domain.MigrationResult{}
	for i := range annotations {
		a := &annotations[i]
		if len(a.Ratings) > 0 || a.LegacyRating == 0 {
			result.AnnotationsSkipped++
			continue
		}

		a.Ratings = make(map[string]int, len(questionIDs))
		for _, qid := range questionIDs {
			a.Ratings[qid] = a.LegacyRating
		}
		a.LegacyRating = 0
		a.UpdatedAt = time.Now()

		if err := s.annotations.Upsert(ctx, a); err != nil {
			return nil, err
		}
		result.AnnotationsMigrated++
	}

	return result, nil
}

// canonicalizeRatings resolves the dual rating representation into one map
// keyed by rubric question ID
func canonicalizeRatings(rubric *domain.Rubric, input *domain.AnnotationInput) (map[string]int, error) {
	questionIDs := rubric.QuestionIDs()

	if len(input.Ratings) > 0 {
		known := make(map[string]bool, len(questionIDs))
		for _, qid := range questionIDs {
			known[qid] = true
		}
		ratings := make(map[string]int, len(input.Ratings))
		for qid, score := range input.Ratings {
			if !known[qid] {
				return nil, apperrors.Validation("unknown rubric question " + qid)
			}
			if score < 1 || score > 5 {
				return nil, apperrors.Validation("rating must be between 1 and 5")
			}
			ratings[qid] = score
		}
		return ratings, nil
	}

	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.Validation("either ratings or a rating between 1 and 5 is required")
	}
	ratings := make(map[string]int, len(questionIDs))
	for _, qid := range questionIDs {
		ratings[qid] = input.Rating
	}
	return ratings, nil
}
