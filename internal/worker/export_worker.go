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

// TypeWorkshopExport is the task type for workshop archive exports
const TypeWorkshopExport = "export:workshop"

// WorkshopExportPayload is the payload for workshop export tasks
type WorkshopExportPayload struct {
	WorkshopID uuid.UUID            `json:"workshop_id"`
	Options    domain.ExportOptions `json:"options"`
}

// NewWorkshopExportTask creates a workshop export task
func NewWorkshopExportTask(payload *WorkshopExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workshop export payload: %w", err)
	}
	return asynq.NewTask(TypeWorkshopExport, data, asynq.MaxRetry(3), asynq.Timeout(30*time.Minute)), nil
}

// ExportWorker handles workshop export tasks
type ExportWorker struct {
	logger *zap.Logger
	export *service.ExportService
}

// NewExportWorker creates a new export worker
func NewExportWorker(logger *zap.Logger, export *service.ExportService) *ExportWorker {
	return &ExportWorker{logger: logger, export: export}
}

// ProcessTask processes a workshop export task
func (w *ExportWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload WorkshopExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal workshop export payload: %w", err)
	}

	w.logger.Info("processing workshop export",
		zap.String("workshop_id", payload.WorkshopID.String()),
		zap.String("format", string(payload.Options.Format)),
	)

	result, err := w.export.Export(ctx, payload.WorkshopID, payload.Options)
	if err != nil {
		return fmt.Errorf("workshop export failed: %w", err)
	}

	w.logger.Info("workshop export finished",
		zap.String("workshop_id", payload.WorkshopID.String()),
		zap.String("path", result.Path),
		zap.Int("size_bytes", result.SizeBytes),
	)
	return nil
}
