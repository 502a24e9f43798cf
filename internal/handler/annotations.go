package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// AnnotationsHandler handles annotation endpoints
type AnnotationsHandler struct {
	annotationService *service.AnnotationService
	logger            *zap.Logger
}

// NewAnnotationsHandler creates a new annotations handler
func NewAnnotationsHandler(annotationService *service.AnnotationService, logger *zap.Logger) *AnnotationsHandler {
	return &AnnotationsHandler{
		annotationService: annotationService,
		logger:            logger,
	}
}

// SaveAnnotation handles POST /api/workshops/:workshopId/annotations
func (h *AnnotationsHandler) SaveAnnotation(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.SaveAnnotationRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	annotation, err := h.annotationService.Save(c.Context(), workshopID, &domain.AnnotationInput{
		TraceID: req.TraceID,
		UserID:  userID,
		Rating:  req.Rating,
		Ratings: req.Ratings,
		Comment: req.Comment,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "save annotation")
	}

	return c.Status(fiber.StatusCreated).JSON(annotation)
}

// ListAnnotations handles GET /api/workshops/:workshopId/annotations.
// Contributors see only their own annotations; facilitators see all.
func (h *AnnotationsHandler) ListAnnotations(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	role, _ := middleware.GetUserRole(c)
	annotations, err := h.annotationService.List(c.Context(), workshopID, userID, domain.PermissionsForRole(role))
	if err != nil {
		return serviceError(c, h.logger, err, "list annotations")
	}

	return c.JSON(fiber.Map{
		"annotations": annotations,
		"count":       len(annotations),
	})
}

// AnnotationProgress handles GET /api/workshops/:workshopId/annotations/progress
func (h *AnnotationsHandler) AnnotationProgress(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	progress, err := h.annotationService.Progress(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "compute annotation progress")
	}

	return c.JSON(fiber.Map{
		"progress": progress,
	})
}

// MigrateLegacyRatings handles POST /api/workshops/:workshopId/annotations/migrate-legacy
func (h *AnnotationsHandler) MigrateLegacyRatings(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	result, err := h.annotationService.MigrateLegacyRatings(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "migrate legacy ratings")
	}

	return c.JSON(result)
}

// ClearAnnotations handles DELETE /api/workshops/:workshopId/annotations
func (h *AnnotationsHandler) ClearAnnotations(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	removed, err := h.annotationService.Clear(c.Context(), workshopID, userID)
	if err != nil {
		return serviceError(c, h.logger, err, "clear annotations")
	}

	return c.JSON(fiber.Map{"removed": removed})
}

// RegisterRoutes registers annotation routes
func (h *AnnotationsHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth())

	scoped.Post("/annotations", h.SaveAnnotation)
	scoped.Get("/annotations", h.ListAnnotations)
	scoped.Get("/annotations/progress", authMiddleware.RequireFacilitator(), h.AnnotationProgress)
	scoped.Post("/annotations/migrate-legacy", authMiddleware.RequireFacilitator(), h.MigrateLegacyRatings)
	scoped.Delete("/annotations", authMiddleware.RequireFacilitator(), h.ClearAnnotations)
}
