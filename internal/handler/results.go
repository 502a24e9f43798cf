package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// ResultsHandler handles inter-rater reliability endpoints
type ResultsHandler struct {
	irrService *service.IRRService
	logger     *zap.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(irrService *service.IRRService, logger *zap.Logger) *ResultsHandler {
	return &ResultsHandler{
		irrService: irrService,
		logger:     logger,
	}
}

// GetIRR handles GET /api/workshops/:workshopId/results/irr
func (h *ResultsHandler) GetIRR(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	result, err := h.irrService.Calculate(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "calculate agreement")
	}

	return c.JSON(result)
}

// RegisterRoutes registers results routes
func (h *ResultsHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth(), authMiddleware.RequireFacilitator())

	scoped.Get("/results/irr", h.GetIRR)
}
