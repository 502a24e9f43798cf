package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// PhasesHandler handles phase transition and active-set endpoints
type PhasesHandler struct {
	phaseService *service.PhaseService
	logger       *zap.Logger
}

// NewPhasesHandler creates a new phases handler
func NewPhasesHandler(phaseService *service.PhaseService, logger *zap.Logger) *PhasesHandler {
	return &PhasesHandler{
		phaseService: phaseService,
		logger:       logger,
	}
}

// SetPhase handles PUT /api/workshops/:workshopId/phase
func (h *PhasesHandler) SetPhase(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.SetPhaseRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	target, err := domain.ParsePhase(req.Phase)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.phaseService.Advance(c.Context(), workshopID, target, &userID)
	if err != nil {
		return serviceError(c, h.logger, err, "change phase")
	}

	return c.JSON(result)
}

// StartDiscovery handles POST /api/workshops/:workshopId/discovery/start
func (h *PhasesHandler) StartDiscovery(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.StartDiscoveryRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.phaseService.BeginDiscovery(c.Context(), workshopID, req.TraceLimit, &userID)
	if err != nil {
		return serviceError(c, h.logger, err, "start discovery")
	}

	return c.JSON(result)
}

// StartAnnotation handles POST /api/workshops/:workshopId/annotation/start
func (h *PhasesHandler) StartAnnotation(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.StartAnnotationRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.phaseService.BeginAnnotation(c.Context(), workshopID, req.TraceLimit, &userID)
	if err != nil {
		return serviceError(c, h.logger, err, "start annotation")
	}

	return c.JSON(result)
}

// AddTraces handles POST /api/workshops/:workshopId/traces/add. Any
// participant may grow the active set once the pool runs dry.
func (h *PhasesHandler) AddTraces(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.AddTracesRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	phase, err := domain.ParsePhase(req.Phase)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.phaseService.AddTraces(c.Context(), workshopID, phase, req.AdditionalCount, &userID)
	if err != nil {
		return serviceError(c, h.logger, err, "add traces")
	}

	return c.JSON(result)
}

// ReorderAnnotationTraces handles POST /api/workshops/:workshopId/annotation/reorder
func (h *PhasesHandler) ReorderAnnotationTraces(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	result, err := h.phaseService.ReorderAnnotationTraces(c.Context(), workshopID, &userID)
	if err != nil {
		return serviceError(c, h.logger, err, "reorder annotation traces")
	}

	return c.JSON(result)
}

// CompletePhase handles POST /api/workshops/:workshopId/phase/complete
func (h *PhasesHandler) CompletePhase(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.CompletePhaseRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	phase, err := domain.ParsePhase(req.Phase)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.phaseService.CompletePhase(c.Context(), workshopID, phase, &userID)
	if err != nil {
		return serviceError(c, h.logger, err, "complete phase")
	}

	return c.JSON(result)
}

// ResumePhase handles POST /api/workshops/:workshopId/phase/resume
func (h *PhasesHandler) ResumePhase(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.CompletePhaseRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	phase, err := domain.ParsePhase(req.Phase)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.phaseService.ResumePhase(c.Context(), workshopID, phase, &userID)
	if err != nil {
		return serviceError(c, h.logger, err, "resume phase")
	}

	return c.JSON(result)
}

// RegisterRoutes registers phase routes
func (h *PhasesHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth())

	scoped.Post("/traces/add", h.AddTraces)

	facilitator := scoped.Group("", authMiddleware.RequireFacilitator())
	facilitator.Put("/phase", h.SetPhase)
	facilitator.Post("/phase/complete", h.CompletePhase)
	facilitator.Post("/phase/resume", h.ResumePhase)
	facilitator.Post("/discovery/start", h.StartDiscovery)
	facilitator.Post("/annotation/start", h.StartAnnotation)
	facilitator.Post("/annotation/reorder", h.ReorderAnnotationTraces)
}
