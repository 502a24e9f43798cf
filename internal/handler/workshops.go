package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// WorkshopsHandler handles workshop lifecycle endpoints
type WorkshopsHandler struct {
	workshopService *service.WorkshopService
	logger          *zap.Logger
}

// NewWorkshopsHandler creates a new workshops handler
func NewWorkshopsHandler(workshopService *service.WorkshopService, logger *zap.Logger) *WorkshopsHandler {
	return &WorkshopsHandler{
		workshopService: workshopService,
		logger:          logger,
	}
}

// CreateWorkshop handles POST /api/workshops. Creation is open: the
// facilitator of record is bound when one registers.
func (h *WorkshopsHandler) CreateWorkshop(c *fiber.Ctx) error {
	var req dto.CreateWorkshopRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	input := &domain.WorkshopInput{Name: req.Name}
	if req.Description != "" {
		input.Description = &req.Description
	}

	workshop, err := h.workshopService.Create(c.Context(), input)
	if err != nil {
		return serviceError(c, h.logger, err, "create workshop")
	}

	return c.Status(fiber.StatusCreated).JSON(workshop)
}

// ListWorkshops handles GET /api/workshops
func (h *WorkshopsHandler) ListWorkshops(c *fiber.Ctx) error {
	p := ParsePagination(c, 100)

	list, err := h.workshopService.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return serviceError(c, h.logger, err, "list workshops")
	}

	return c.JSON(list)
}

// GetWorkshop handles GET /api/workshops/:workshopId
func (h *WorkshopsHandler) GetWorkshop(c *fiber.Ctx) error {
	workshopID, err := uuid.Parse(c.Params("workshopId"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid workshop ID")
	}

	workshop, err := h.workshopService.Get(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "get workshop")
	}

	return c.JSON(workshop)
}

// UpdateWorkshop handles PATCH /api/workshops/:workshopId
func (h *WorkshopsHandler) UpdateWorkshop(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateWorkshopRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	workshop, err := h.workshopService.Update(c.Context(), workshopID, req.Name, req.Description, domain.WorkshopStatus(req.Status))
	if err != nil {
		return serviceError(c, h.logger, err, "update workshop")
	}

	return c.JSON(workshop)
}

// DeleteWorkshop handles DELETE /api/workshops/:workshopId
func (h *WorkshopsHandler) DeleteWorkshop(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	if err := h.workshopService.Delete(c.Context(), workshopID); err != nil {
		return serviceError(c, h.logger, err, "delete workshop")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListParticipants handles GET /api/workshops/:workshopId/participants
func (h *WorkshopsHandler) ListParticipants(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	participants, err := h.workshopService.Participants(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "list participants")
	}

	return c.JSON(fiber.Map{
		"participants": participants,
		"count":        len(participants),
	})
}

// RegisterRoutes registers workshop routes
func (h *WorkshopsHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	app.Post("/api/workshops", h.CreateWorkshop)
	app.Get("/api/workshops", h.ListWorkshops)
	app.Get("/api/workshops/:workshopId", h.GetWorkshop)

	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth())
	scoped.Get("/participants", h.ListParticipants)
	scoped.Patch("/", authMiddleware.RequireFacilitator(), h.UpdateWorkshop)
	scoped.Delete("/", authMiddleware.RequireFacilitator(), h.DeleteWorkshop)
}
