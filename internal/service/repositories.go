package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

// WorkshopRepository defines workshop persistence operations
type WorkshopRepository interface {
	Create(ctx context.Context, workshop *domain.Workshop) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workshop, error)
	List(ctx context.Context, limit, offset int) ([]domain.Workshop, int, error)
	Update(ctx context.Context, workshop *domain.Workshop) error
	UpdateState(ctx context.Context, workshop *domain.Workshop) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TraceRepository defines trace-pool persistence operations
type TraceRepository interface {
	CreateBatch(ctx context.Context, workshopID uuid.UUID, traces []domain.Trace) error
	GetByID(ctx context.Context, workshopID uuid.UUID, traceID string) (*domain.Trace, error)
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Trace, error)
	Count(ctx context.Context, workshopID uuid.UUID) (int, error)
	ExistingExternalIDs(ctx context.Context, workshopID uuid.UUID, externalIDs []string) (map[string]bool, error)
}

// FindingRepository defines finding persistence operations
type FindingRepository interface {
	Upsert(ctx context.Context, finding *domain.Finding) error
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Finding, error)
	ListByUser(ctx context.Context, workshopID, userID uuid.UUID) ([]domain.Finding, error)
	Count(ctx context.Context, workshopID uuid.UUID) (int, error)
	DeleteByWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error)
}

// RubricRepository defines rubric persistence operations
type RubricRepository interface {
	Upsert(ctx context.Context, rubric *domain.Rubric) error
	GetByWorkshop(ctx context.Context, workshopID uuid.UUID) (*domain.Rubric, error)
	Exists(ctx context.Context, workshopID uuid.UUID) (bool, error)
	Delete(ctx context.Context, workshopID uuid.UUID) error
}

// AnnotationRepository defines annotation persistence operations
type AnnotationRepository interface {
	Upsert(ctx context.Context, annotation *domain.Annotation) error
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.Annotation, error)
	ListByUser(ctx context.Context, workshopID, userID uuid.UUID) ([]domain.Annotation, error)
	ListByTrace(ctx context.Context, workshopID uuid.UUID, traceID string) ([]domain.Annotation, error)
	Count(ctx context.Context, workshopID uuid.UUID) (int, error)
	DeleteByWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error)
}

// UserRepository defines user persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, workshopID uuid.UUID, email string) (*domain.User, error)
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]domain.User, error)
	TouchLastActive(ctx context.Context, id uuid.UUID) error
}

// JudgeRepository defines judge prompt and evaluation persistence operations
type JudgeRepository interface {
	CreatePrompt(ctx context.Context, prompt *domain.JudgePrompt) error
	GetPrompt(ctx context.Context, id uuid.UUID) (*domain.JudgePrompt, error)
	ListPrompts(ctx context.Context, workshopID uuid.UUID) ([]domain.JudgePrompt, error)
	SaveEvaluations(ctx context.Context, promptID uuid.UUID, evaluations []domain.JudgeEvaluation) error
	ListEvaluations(ctx context.Context, promptID uuid.UUID) ([]domain.JudgeEvaluation, error)
}

// EventRepository defines the workshop event log operations
type EventRepository interface {
	Append(ctx context.Context, input *domain.WorkshopEventInput) (*domain.WorkshopEvent, error)
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID, limit int) ([]domain.WorkshopEvent, error)
	CountByType(ctx context.Context, workshopID uuid.UUID) (map[domain.EventType]int, error)
}
