package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// TracesHandler handles trace-pool endpoints
type TracesHandler struct {
	traceService *service.TraceService
	logger       *zap.Logger
}

// NewTracesHandler creates a new traces handler
func NewTracesHandler(traceService *service.TraceService, logger *zap.Logger) *TracesHandler {
	return &TracesHandler{
		traceService: traceService,
		logger:       logger,
	}
}

// UploadTraces handles POST /api/workshops/:workshopId/traces
func (h *TracesHandler) UploadTraces(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	var req dto.UploadTracesRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	inputs := make([]domain.TraceInput, len(req.Traces))
	for i, t := range req.Traces {
		inputs[i] = domain.TraceInput{
			Input:    t.Input,
			Output:   t.Output,
			Context:  t.Context,
			Metadata: t.Metadata,
		}
	}

	traces, err := h.traceService.Upload(c.Context(), workshopID, inputs)
	if err != nil {
		return serviceError(c, h.logger, err, "upload traces")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"traces": traces,
		"count":  len(traces),
	})
}

// ListVisibleTraces handles GET /api/workshops/:workshopId/traces.
// During discovery and annotation only the active subset is returned,
// in the workshop's stored order.
func (h *TracesHandler) ListVisibleTraces(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	traces, err := h.traceService.ListVisible(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "list traces")
	}

	return c.JSON(fiber.Map{
		"traces": traces,
		"count":  len(traces),
	})
}

// ListAllTraces handles GET /api/workshops/:workshopId/traces/all
func (h *TracesHandler) ListAllTraces(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	traces, err := h.traceService.List(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "list traces")
	}

	return c.JSON(fiber.Map{
		"traces": traces,
		"count":  len(traces),
	})
}

// GetTrace handles GET /api/workshops/:workshopId/traces/:traceId
func (h *TracesHandler) GetTrace(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	traceID := c.Params("traceId")
	if traceID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Trace ID required")
	}

	trace, err := h.traceService.Get(c.Context(), workshopID, traceID)
	if err != nil {
		return serviceError(c, h.logger, err, "get trace")
	}

	return c.JSON(trace)
}

// RegisterRoutes registers trace routes
func (h *TracesHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth())

	scoped.Get("/traces", h.ListVisibleTraces)
	scoped.Get("/traces/all", authMiddleware.RequireFacilitator(), h.ListAllTraces)
	scoped.Get("/traces/:traceId", h.GetTrace)
	scoped.Post("/traces", authMiddleware.RequireFacilitator(), h.UploadTraces)
}
