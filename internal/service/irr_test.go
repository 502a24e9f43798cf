package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

func ratedAnnotation(user uuid.UUID, traceID string, rating int) domain.Annotation {
	return domain.Annotation{
		ID:      uuid.New(),
		TraceID: traceID,
		UserID:  user,
		Ratings: map[string]int{"q_1": rating},
	}
}

// pairedAnnotations builds two-rater annotations where trace i receives
// ratings[i][0] from the first rater and ratings[i][1] from the second.
func pairedAnnotations(ratings [][2]int) []domain.Annotation {
	r1, r2 := uuid.New(), uuid.New()
	var out []domain.Annotation
	for i, pair := range ratings {
		traceID := traceIDAt(i)
		out = append(out,
			ratedAnnotation(r1, traceID, pair[0]),
			ratedAnnotation(r2, traceID, pair[1]))
	}
	return out
}

func traceIDAt(i int) string {
	return "trace-" + string(rune('a'+i))
}

func TestCohensKappa(t *testing.T) {
	t.Run("perfect agreement", func(t *testing.T) {
		kappa, err := cohensKappa(pairedAnnotations([][2]int{{1, 1}, {2, 2}, {3, 3}, {4, 4}}), "q_1")
		require.NoError(t, err)
		assert.Equal(t, 1.0, kappa)
	})

	t.Run("chance-level agreement", func(t *testing.T) {
		kappa, err := cohensKappa(pairedAnnotations([][2]int{{1, 1}, {2, 2}, {1, 2}, {2, 1}}), "q_1")
		require.NoError(t, err)
		assert.InDelta(t, 0.0, kappa, 1e-9)
	})

	t.Run("moderate agreement", func(t *testing.T) {
		// po = 0.75, pe = 0.5
		kappa, err := cohensKappa(pairedAnnotations([][2]int{{1, 1}, {1, 1}, {2, 2}, {1, 2}}), "q_1")
		require.NoError(t, err)
		assert.InDelta(t, 0.5, kappa, 1e-9)
	})

	t.Run("rejects a single rater", func(t *testing.T) {
		solo := uuid.New()
		_, err := cohensKappa([]domain.Annotation{
			ratedAnnotation(solo, "trace-a", 3),
			ratedAnnotation(solo, "trace-b", 4),
		}, "q_1")
		require.Error(t, err)
	})

	t.Run("rejects fewer than two paired traces", func(t *testing.T) {
		_, err := cohensKappa(pairedAnnotations([][2]int{{3, 4}}), "q_1")
		require.Error(t, err)
	})
}

func TestKrippendorffAlpha(t *testing.T) {
	t.Run("perfect agreement on varied ratings", func(t *testing.T) {
		alpha := krippendorffAlpha(pairedAnnotations([][2]int{{1, 1}, {3, 3}, {5, 5}}), "q_1")
		assert.Equal(t, 1.0, alpha)
	})

	t.Run("trivial agreement on a single rating", func(t *testing.T) {
		alpha := krippendorffAlpha(pairedAnnotations([][2]int{{4, 4}, {4, 4}}), "q_1")
		assert.Equal(t, 1.0, alpha)
	})

	t.Run("partial agreement", func(t *testing.T) {
		// Do = 0.25, De = 0.46875
		alpha := krippendorffAlpha(pairedAnnotations([][2]int{{1, 1}, {1, 2}, {2, 2}, {2, 2}}), "q_1")
		assert.InDelta(t, 0.46667, alpha, 1e-4)
	})

	t.Run("systematic disagreement clamps to -1", func(t *testing.T) {
		alpha := krippendorffAlpha(pairedAnnotations([][2]int{{1, 5}, {5, 1}, {1, 5}, {5, 1}}), "q_1")
		assert.Equal(t, -1.0, alpha)
	})

	t.Run("three raters", func(t *testing.T) {
		r1, r2, r3 := uuid.New(), uuid.New(), uuid.New()
		alpha := krippendorffAlpha([]domain.Annotation{
			ratedAnnotation(r1, "trace-a", 2),
			ratedAnnotation(r2, "trace-a", 2),
			ratedAnnotation(r3, "trace-a", 2),
			ratedAnnotation(r1, "trace-b", 4),
			ratedAnnotation(r2, "trace-b", 4),
			ratedAnnotation(r3, "trace-b", 4),
		}, "q_1")
		assert.Equal(t, 1.0, alpha)
	})
}

func TestInterpretations(t *testing.T) {
	assert.Contains(t, interpretKappa(0.9), "Almost perfect")
	assert.Contains(t, interpretKappa(0.5), "Moderate")
	assert.Contains(t, interpretKappa(-0.2), "Poor")
	assert.Contains(t, interpretAlpha(0.85), "Excellent")
	assert.Contains(t, interpretAlpha(0.7), "Good")
	assert.Contains(t, interpretAlpha(0.1), "Poor")
	assert.Contains(t, interpretAlpha(-0.5), "Systematic")
}

func TestImprovementSuggestions(t *testing.T) {
	assert.Nil(t, improvementSuggestions(0.5))
	assert.Len(t, improvementSuggestions(0.2), 4)
	assert.Len(t, improvementSuggestions(0.1), 5)
	assert.Len(t, improvementSuggestions(-0.3), 7)
}

func seedIRRAnnotations(t *testing.T, f *phaseFixture, annotations []domain.Annotation) {
	t.Helper()
	for i := range annotations {
		a := annotations[i]
		a.WorkshopID = f.workshopID
		require.NoError(t, f.annotations.Upsert(context.Background(), &a))
	}
}

func TestIRRCalculateSelectsKappaForTwoRaters(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 4, domain.PhaseResults)
	seedIRRAnnotations(t, f, pairedAnnotations([][2]int{{1, 1}, {2, 2}, {3, 3}, {4, 4}}))

	svc := NewIRRService(f.workshops, f.annotations)
	result, err := svc.Calculate(ctx, f.workshopID)
	require.NoError(t, err)

	assert.Equal(t, domain.IRRMetricCohensKappa, result.Metric)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.ReadyToProceed)
	assert.Nil(t, result.Suggestions)
	assert.Equal(t, 2, result.NumRaters)
	assert.Equal(t, 8, result.NumAnnotations)
	assert.Contains(t, result.PerQuestion, "q_1")
}

func TestIRRCalculateUsesAlphaForThreeRaters(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 2, domain.PhaseResults)
	r1, r2, r3 := uuid.New(), uuid.New(), uuid.New()
	seedIRRAnnotations(t, f, []domain.Annotation{
		ratedAnnotation(r1, "trace-a", 3),
		ratedAnnotation(r2, "trace-a", 3),
		ratedAnnotation(r3, "trace-a", 3),
		ratedAnnotation(r1, "trace-b", 5),
		ratedAnnotation(r2, "trace-b", 5),
		ratedAnnotation(r3, "trace-b", 5),
	})

	svc := NewIRRService(f.workshops, f.annotations)
	result, err := svc.Calculate(ctx, f.workshopID)
	require.NoError(t, err)

	assert.Equal(t, domain.IRRMetricKrippendorffAlpha, result.Metric)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 3, result.NumRaters)
}

func TestIRRCalculateFallsBackToAlpha(t *testing.T) {
	// Two raters but only one shared trace, which kappa cannot score.
	ctx := context.Background()
	f := newPhaseFixture(t, 1, domain.PhaseResults)
	seedIRRAnnotations(t, f, pairedAnnotations([][2]int{{2, 4}}))

	svc := NewIRRService(f.workshops, f.annotations)
	result, err := svc.Calculate(ctx, f.workshopID)
	require.NoError(t, err)

	assert.Equal(t, domain.IRRMetricKrippendorffAlpha, result.Metric)
	assert.Equal(t, -1.0, result.Score)
	assert.False(t, result.ReadyToProceed)
	assert.NotEmpty(t, result.Suggestions)
}

func TestIRRCalculateRequiresAnnotations(t *testing.T) {
	ctx := context.Background()
	f := newPhaseFixture(t, 1, domain.PhaseResults)

	svc := NewIRRService(f.workshops, f.annotations)
	_, err := svc.Calculate(ctx, f.workshopID)
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))
}
