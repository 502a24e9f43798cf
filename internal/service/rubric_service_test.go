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

func newRubricFixture(t *testing.T) (*RubricService, uuid.UUID) {
	t.Helper()

	workshops := newFakeWorkshopRepo()
	workshopID := uuid.New()
	require.NoError(t, workshops.Create(context.Background(), &domain.Workshop{
		ID:           workshopID,
		Name:         "support quality review",
		Status:       domain.WorkshopStatusActive,
		CurrentPhase: domain.PhaseRubric,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}))

	return NewRubricService(workshops, newFakeRubricRepo(), nil, nil), workshopID
}

func TestRubricSaveReplacesKeepingIdentity(t *testing.T) {
	svc, workshopID := newRubricFixture(t)
	ctx := context.Background()
	author := uuid.New()

	first, err := svc.Save(ctx, workshopID, &domain.RubricInput{
		Question:  "Accuracy: Is the answer factually correct?",
		CreatedBy: author,
	})
	require.NoError(t, err)

	second, err := svc.Save(ctx, workshopID, &domain.RubricInput{
		Question:  "Tone: Is the response appropriately professional?",
		CreatedBy: author,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "replacing the rubric must keep its identity so question IDs stay stable")
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "Tone: Is the response appropriately professional?", second.Question)
}

func TestRubricQuestionsPositionalIDs(t *testing.T) {
	svc, workshopID := newRubricFixture(t)
	ctx := context.Background()

	rubric, err := svc.Save(ctx, workshopID, &domain.RubricInput{
		Question:  "Accuracy: Is the answer factually correct?\n\nGrounding: Does the answer cite the trace?",
		CreatedBy: uuid.New(),
	})
	require.NoError(t, err)

	questions, err := svc.Questions(ctx, workshopID)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, fmt.Sprintf("%s_1", rubric.ID), questions[0].ID)
	assert.Equal(t, fmt.Sprintf("%s_2", rubric.ID), questions[1].ID)
	assert.Equal(t, "Accuracy", questions[0].Title)
	assert.Equal(t, "Does the answer cite the trace?", questions[1].Description)
}

func TestRubricUpdateQuestion(t *testing.T) {
	svc, workshopID := newRubricFixture(t)
	ctx := context.Background()
	author := uuid.New()

	rubric, err := svc.Save(ctx, workshopID, &domain.RubricInput{
		Question:  "Accuracy: Is the answer factually correct?\n\nGrounding: Does the answer cite the trace?",
		CreatedBy: author,
	})
	require.NoError(t, err)

	_, err = svc.UpdateQuestion(ctx, workshopID, fmt.Sprintf("%s_2", rubric.ID),
		"Grounding", "Is every claim supported by the trace?", author)
	require.NoError(t, err)

	questions, err := svc.Questions(ctx, workshopID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Is every claim supported by the trace?", questions[1].Description)
	assert.Equal(t, "Accuracy", questions[0].Title, "earlier questions are untouched")

	_, err = svc.UpdateQuestion(ctx, workshopID, fmt.Sprintf("%s_9", rubric.ID), "x", "y", author)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRubricDeleteQuestionShiftsLaterIDs(t *testing.T) {
	svc, workshopID := newRubricFixture(t)
	ctx := context.Background()
	author := uuid.New()

	rubric, err := svc.Save(ctx, workshopID, &domain.RubricInput{
		Question:  "Accuracy: Is the answer factually correct?\n\nGrounding: Does the answer cite the trace?",
		CreatedBy: author,
	})
	require.NoError(t, err)

	_, err = svc.DeleteQuestion(ctx, workshopID, fmt.Sprintf("%s_1", rubric.ID), author)
	require.NoError(t, err)

	questions, err := svc.Questions(ctx, workshopID)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, fmt.Sprintf("%s_1", rubric.ID), questions[0].ID, "the surviving question takes the first positional ID")
	assert.Equal(t, "Grounding", questions[0].Title)
}

func TestRubricDelete(t *testing.T) {
	svc, workshopID := newRubricFixture(t)
	ctx := context.Background()
	author := uuid.New()

	_, err := svc.Save(ctx, workshopID, &domain.RubricInput{
		Question:  "Accuracy: Is the answer factually correct?",
		CreatedBy: author,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, workshopID, author))

	_, err = svc.Get(ctx, workshopID)
	assert.True(t, apperrors.IsNotFound(err))
}
