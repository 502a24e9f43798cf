package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/logger"
)

// WorkshopService handles workshop lifecycle operations
type WorkshopService struct {
	workshops WorkshopRepository
	traces    TraceRepository
	users     UserRepository
}

// NewWorkshopService creates a new workshop service
func NewWorkshopService(workshops WorkshopRepository, traces TraceRepository, users UserRepository) *WorkshopService {
	return &WorkshopService{
		workshops: workshops,
		traces:    traces,
		users:     users,
	}
}

// Create creates a workshop in the intake phase with empty active sets
func (s *WorkshopService) Create(ctx context.Context, input *domain.WorkshopInput) (*domain.Workshop, error) {
	now := time.Now()
	workshop := &domain.Workshop{
		ID:            uuid.New(),
		Name:          input.Name,
		FacilitatorID: input.FacilitatorID,
		Status:        domain.WorkshopStatusActive,
		CurrentPhase:  domain.PhaseIntake,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.Description != nil {
		workshop.Description = *input.Description
	}

	if err := s.workshops.Create(ctx, workshop); err != nil {
		return nil, err
	}

	logger.Info("workshop created",
		zap.String("workshop_id", workshop.ID.String()),
		zap.String("name", workshop.Name))

	return workshop, nil
}

// Get retrieves a workshop by ID
func (s *WorkshopService) Get(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	return s.workshops.GetByID(ctx, id)
}

// List retrieves workshops with pagination
func (s *WorkshopService) List(ctx context.Context, limit, offset int) (*domain.WorkshopList, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	workshops, total, err := s.workshops.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return &domain.WorkshopList{
		Workshops:  workshops,
		TotalCount: int64(total),
	}, nil
}

// Update changes a workshop's name, description or status
func (s *WorkshopService) Update(ctx context.Context, id uuid.UUID, name, description string, status domain.WorkshopStatus) (*domain.Workshop, error) {
	workshop, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		workshop.Name = name
	}
	if description != "" {
		workshop.Description = description
	}
	if status != "" {
		if !status.IsValid() {
			return nil, apperrors.Validation("invalid workshop status")
		}
		workshop.Status = status
	}

	if err := s.workshops.Update(ctx, workshop); err != nil {
		return nil, err
	}

	return workshop, nil
}

// Delete removes a workshop
func (s *WorkshopService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.workshops.Delete(ctx, id)
}

// Participants lists a workshop's users
func (s *WorkshopService) Participants(ctx context.Context, id uuid.UUID) ([]domain.User, error) {
	if _, err := s.workshops.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.users.ListByWorkshop(ctx, id)
}
