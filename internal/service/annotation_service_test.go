package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

func newAnnotationFixture(t *testing.T) (*AnnotationService, *phaseFixture, *domain.Rubric) {
	t.Helper()
	f := newPhaseFixture(t, 5, domain.PhaseAnnotation)

	rubric := &domain.Rubric{
		ID:         uuid.New(),
		WorkshopID: f.workshopID,
		Question:   "Accuracy: Is the answer correct?\n\nTone: Is the response professional?",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.rubrics.Upsert(context.Background(), rubric))

	svc := NewAnnotationService(f.workshops, f.traces, f.rubrics, f.annotations, nil, nil)
	return svc, f, rubric
}

func TestAnnotationSaveWithRatingsMap(t *testing.T) {
	ctx := context.Background()
	svc, f, rubric := newAnnotationFixture(t)
	qids := rubric.QuestionIDs()
	require.Len(t, qids, 2)

	a, err := svc.Save(ctx, f.workshopID, &domain.AnnotationInput{
		TraceID: "trace-001",
		UserID:  uuid.New(),
		Ratings: map[string]int{qids[0]: 4, qids[1]: 2},
		Comment: "accurate but curt",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{qids[0]: 4, qids[1]: 2}, a.Ratings)
	assert.Zero(t, a.LegacyRating)
}

func TestAnnotationSaveCanonicalizesScalar(t *testing.T) {
	ctx := context.Background()
	svc, f, rubric := newAnnotationFixture(t)
	qids := rubric.QuestionIDs()

	a, err := svc.Save(ctx, f.workshopID, &domain.AnnotationInput{
		TraceID: "trace-002",
		UserID:  uuid.New(),
		Rating:  5,
	})
	require.NoError(t, err)

	// the scalar lands on every rubric question
	require.Len(t, a.Ratings, len(qids))
	for _, qid := range qids {
		assert.Equal(t, 5, a.Ratings[qid])
	}
}

func TestAnnotationSaveRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, f, rubric := newAnnotationFixture(t)
	qids := rubric.QuestionIDs()

	t.Run("no rating at all", func(t *testing.T) {
		_, err := svc.Save(ctx, f.workshopID, &domain.AnnotationInput{
			TraceID: "trace-001",
			UserID:  uuid.New(),
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("out-of-range score", func(t *testing.T) {
		_, err := svc.Save(ctx, f.workshopID, &domain.AnnotationInput{
			TraceID: "trace-001",
			UserID:  uuid.New(),
			Ratings: map[string]int{qids[0]: 9},
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown question ID", func(t *testing.T) {
		_, err := svc.Save(ctx, f.workshopID, &domain.AnnotationInput{
			TraceID: "trace-001",
			UserID:  uuid.New(),
			Ratings: map[string]int{"bogus_9": 3},
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown trace", func(t *testing.T) {
		_, err := svc.Save(ctx, f.workshopID, &domain.AnnotationInput{
			TraceID: "trace-999",
			UserID:  uuid.New(),
			Rating:  3,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestMigrateLegacyRatings(t *testing.T) {
	ctx := context.Background()
	svc, f, rubric := newAnnotationFixture(t)
	qids := rubric.QuestionIDs()

	// two legacy annotations, one already-canonical, one empty
	for i, legacy := range []int{3, 5} {
		require.NoError(t, f.annotations.Upsert(ctx, &domain.Annotation{
			ID:           uuid.New(),
			WorkshopID:   f.workshopID,
			TraceID:      fmt.Sprintf("trace-00%d", i+1),
			UserID:       uuid.New(),
			LegacyRating: legacy,
		}))
	}
	require.NoError(t, f.annotations.Upsert(ctx, &domain.Annotation{
		ID:         uuid.New(),
		WorkshopID: f.workshopID,
		TraceID:    "trace-003",
		UserID:     uuid.New(),
		Ratings:    map[string]int{qids[0]: 2},
	}))

	res, err := svc.MigrateLegacyRatings(ctx, f.workshopID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.AnnotationsMigrated)
	assert.Equal(t, 1, res.AnnotationsSkipped)
}

func TestRubricQuestionParsing(t *testing.T) {
	rubric := &domain.Rubric{
		ID:       uuid.New(),
		Question: "Accuracy: Is it right?\n\nClarity: Is it readable?\n\nCompleteness",
	}

	questions := rubric.Questions()
	require.Len(t, questions, 3)
	assert.Equal(t, fmt.Sprintf("%s_1", rubric.ID), questions[0].ID)
	assert.Equal(t, "Accuracy", questions[0].Title)
	assert.Equal(t, "Is it right?", questions[0].Description)
	assert.Equal(t, fmt.Sprintf("%s_3", rubric.ID), questions[2].ID)
	assert.Equal(t, "Completeness", questions[2].Title)
	assert.Empty(t, questions[2].Description)
}
