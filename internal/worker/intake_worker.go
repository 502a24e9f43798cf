package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// TypeTraceIntake is the task type for pulling traces from the external
// trace server into a workshop pool.
const TypeTraceIntake = "intake:traces"

// TraceIntakePayload is the payload for trace intake tasks
type TraceIntakePayload struct {
	WorkshopID uuid.UUID            `json:"workshop_id"`
	Request    domain.IntakeRequest `json:"request"`
}

// NewTraceIntakeTask creates a trace intake task
func NewTraceIntakeTask(payload *TraceIntakePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trace intake payload: %w", err)
	}
	return asynq.NewTask(TypeTraceIntake, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// IntakeWorker handles trace intake tasks
type IntakeWorker struct {
	logger *zap.Logger
	intake *service.IntakeService
}

// NewIntakeWorker creates a new intake worker
func NewIntakeWorker(logger *zap.Logger, intake *service.IntakeService) *IntakeWorker {
	return &IntakeWorker{logger: logger, intake: intake}
}

// ProcessTask processes a trace intake task
func (w *IntakeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload TraceIntakePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal trace intake payload: %w", err)
	}

	w.logger.Info("processing trace intake",
		zap.String("workshop_id", payload.WorkshopID.String()),
		zap.String("experiment_id", payload.Request.ExperimentID),
	)

	result, err := w.intake.Run(ctx, payload.WorkshopID, &payload.Request)
	if err != nil {
		return fmt.Errorf("trace intake failed: %w", err)
	}

	w.logger.Info("trace intake finished",
		zap.String("workshop_id", payload.WorkshopID.String()),
		zap.Int("ingested", result.TracesIngested),
		zap.Int("skipped", result.TracesSkipped),
	)
	return nil
}
