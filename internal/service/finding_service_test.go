package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

func newFindingFixture(t *testing.T) (*FindingService, uuid.UUID) {
	t.Helper()

	workshops := newFakeWorkshopRepo()
	traces := newFakeTraceRepo()
	workshopID := uuid.New()
	now := time.Now()

	require.NoError(t, workshops.Create(context.Background(), &domain.Workshop{
		ID:           workshopID,
		Name:         "support quality review",
		Status:       domain.WorkshopStatusActive,
		CurrentPhase: domain.PhaseDiscovery,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
	require.NoError(t, traces.CreateBatch(context.Background(), workshopID, []domain.Trace{
		{ID: "trace-001", WorkshopID: workshopID, Seq: 1, CreatedAt: now},
		{ID: "trace-002", WorkshopID: workshopID, Seq: 2, CreatedAt: now.Add(time.Second)},
	}))

	return NewFindingService(workshops, traces, newFakeFindingRepo(), nil, nil), workshopID
}

func TestFindingSaveRequiresKnownTrace(t *testing.T) {
	svc, workshopID := newFindingFixture(t)

	_, err := svc.Save(context.Background(), workshopID, &domain.FindingInput{
		TraceID: "trace-999",
		UserID:  uuid.New(),
		Insight: "agent ignored the stated refund window",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindingListScopedByPermissions(t *testing.T) {
	svc, workshopID := newFindingFixture(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	for _, f := range []domain.FindingInput{
		{TraceID: "trace-001", UserID: alice, Insight: "agent ignored the stated refund window"},
		{TraceID: "trace-002", UserID: bob, Insight: "tone turns dismissive after the second turn"},
	} {
		_, err := svc.Save(ctx, workshopID, &f)
		require.NoError(t, err)
	}

	own, err := svc.List(ctx, workshopID, alice, domain.PermissionsForRole(domain.RoleSME))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, alice, own[0].UserID)

	all, err := svc.List(ctx, workshopID, alice, domain.PermissionsForRole(domain.RoleFacilitator))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFindingClear(t *testing.T) {
	svc, workshopID := newFindingFixture(t)
	ctx := context.Background()
	facilitator := uuid.New()

	for _, traceID := range []string{"trace-001", "trace-002"} {
		_, err := svc.Save(ctx, workshopID, &domain.FindingInput{
			TraceID: traceID,
			UserID:  uuid.New(),
			Insight: "agent ignored the stated refund window",
		})
		require.NoError(t, err)
	}

	removed, err := svc.Clear(ctx, workshopID, facilitator)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := svc.List(ctx, workshopID, facilitator, domain.PermissionsForRole(domain.RoleFacilitator))
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = svc.Clear(ctx, uuid.New(), facilitator)
	assert.True(t, apperrors.IsNotFound(err))
}
