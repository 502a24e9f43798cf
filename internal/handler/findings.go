package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// FindingsHandler handles discovery finding endpoints
type FindingsHandler struct {
	findingService *service.FindingService
	logger         *zap.Logger
}

// NewFindingsHandler creates a new findings handler
func NewFindingsHandler(findingService *service.FindingService, logger *zap.Logger) *FindingsHandler {
	return &FindingsHandler{
		findingService: findingService,
		logger:         logger,
	}
}

// SaveFinding handles POST /api/workshops/:workshopId/findings
func (h *FindingsHandler) SaveFinding(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.SaveFindingRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	finding, err := h.findingService.Save(c.Context(), workshopID, &domain.FindingInput{
		TraceID: req.TraceID,
		UserID:  userID,
		Insight: req.Insight,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "save finding")
	}

	return c.Status(fiber.StatusCreated).JSON(finding)
}

// ListFindings handles GET /api/workshops/:workshopId/findings.
// Contributors see only their own findings; facilitators see all.
func (h *FindingsHandler) ListFindings(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	role, _ := middleware.GetUserRole(c)
	findings, err := h.findingService.List(c.Context(), workshopID, userID, domain.PermissionsForRole(role))
	if err != nil {
		return serviceError(c, h.logger, err, "list findings")
	}

	return c.JSON(fiber.Map{
		"findings": findings,
		"count":    len(findings),
	})
}

// ClearFindings handles DELETE /api/workshops/:workshopId/findings
func (h *FindingsHandler) ClearFindings(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	removed, err := h.findingService.Clear(c.Context(), workshopID, userID)
	if err != nil {
		return serviceError(c, h.logger, err, "clear findings")
	}

	return c.JSON(fiber.Map{"removed": removed})
}

// RegisterRoutes registers finding routes
func (h *FindingsHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth())

	scoped.Post("/findings", h.SaveFinding)
	scoped.Get("/findings", h.ListFindings)
	scoped.Delete("/findings", authMiddleware.RequireFacilitator(), h.ClearFindings)
}
