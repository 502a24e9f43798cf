package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

// NewTestWorkshop creates a test workshop in the intake phase.
func NewTestWorkshop() *domain.Workshop {
	now := time.Now()
	return &domain.Workshop{
		ID:           uuid.New(),
		Name:         "test-workshop",
		Status:       domain.WorkshopStatusActive,
		CurrentPhase: domain.PhaseIntake,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestUser creates a test participant in a workshop.
func NewTestUser(workshopID uuid.UUID, role domain.UserRole) *domain.User {
	return &domain.User{
		ID:         uuid.New(),
		Email:      "test@example.com",
		Name:       "Test User",
		Role:       role,
		WorkshopID: workshopID,
		CreatedAt:  time.Now(),
	}
}

// NewTestTraces creates n test traces for a workshop, in upload order.
func NewTestTraces(workshopID uuid.UUID, n int) []domain.Trace {
	traces := make([]domain.Trace, n)
	for i := range traces {
		traces[i] = domain.Trace{
			ID:         fmt.Sprintf("trace-%03d", i+1),
			WorkshopID: workshopID,
			Input:      fmt.Sprintf("input %d", i+1),
			Output:     fmt.Sprintf("output %d", i+1),
			Seq:        int64(i + 1),
			CreatedAt:  time.Now(),
		}
	}
	return traces
}
