package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
	"github.com/evalworkshop/evalworkshop/api/internal/worker"
)

// ExportHandler handles workshop archive export endpoints
type ExportHandler struct {
	exportService *service.ExportService
	asynqClient   *asynq.Client
	logger        *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *service.ExportService, asynqClient *asynq.Client, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		asynqClient:   asynqClient,
		logger:        logger,
	}
}

// ExportWorkshop handles POST /api/workshops/:workshopId/export
func (h *ExportHandler) ExportWorkshop(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	var req dto.ExportWorkshopRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	opts := domain.ExportOptions{
		Format:             domain.ExportFormat(req.Format),
		IncludeTraces:      req.IncludeTraces,
		IncludeAnnotations: req.IncludeAnnotations,
		IncludeRubric:      req.IncludeRubric,
		IncludeJudge:       req.IncludeJudge,
	}

	// Without a queue client, build and store the archive inline.
	if h.asynqClient == nil {
		result, err := h.exportService.Export(c.Context(), workshopID, opts)
		if err != nil {
			return serviceError(c, h.logger, err, "export workshop")
		}
		return c.JSON(result)
	}

	task, err := worker.NewWorkshopExportTask(&worker.WorkshopExportPayload{
		WorkshopID: workshopID,
		Options:    opts,
	})
	if err != nil {
		h.logger.Error("failed to create export task", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to queue workshop export")
	}

	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		h.logger.Error("failed to enqueue export task", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to queue workshop export")
	}

	h.logger.Info("workshop export queued",
		zap.String("workshop_id", workshopID.String()),
		zap.String("task_id", info.ID),
		zap.String("format", string(opts.Format)),
	)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"taskId":  info.ID,
		"status":  "queued",
		"message": "Workshop export has been queued for processing",
	})
}

// RegisterRoutes registers export routes
func (h *ExportHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth(), authMiddleware.RequireFacilitator())

	scoped.Post("/export", h.ExportWorkshop)
}
