package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// RubricsHandler handles rubric endpoints
type RubricsHandler struct {
	rubricService *service.RubricService
	logger        *zap.Logger
}

// NewRubricsHandler creates a new rubrics handler
func NewRubricsHandler(rubricService *service.RubricService, logger *zap.Logger) *RubricsHandler {
	return &RubricsHandler{
		rubricService: rubricService,
		logger:        logger,
	}
}

// SaveRubric handles POST /api/workshops/:workshopId/rubric
func (h *RubricsHandler) SaveRubric(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.SaveRubricRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	rubric, err := h.rubricService.Save(c.Context(), workshopID, &domain.RubricInput{
		Question:  req.Question,
		CreatedBy: userID,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "save rubric")
	}

	return c.Status(fiber.StatusCreated).JSON(rubric)
}

// GetRubric handles GET /api/workshops/:workshopId/rubric
func (h *RubricsHandler) GetRubric(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	rubric, err := h.rubricService.Get(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "get rubric")
	}

	return c.JSON(rubric)
}

// ListQuestions handles GET /api/workshops/:workshopId/rubric/questions
func (h *RubricsHandler) ListQuestions(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	questions, err := h.rubricService.Questions(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "list rubric questions")
	}

	return c.JSON(fiber.Map{
		"questions": questions,
		"count":     len(questions),
	})
}

// UpdateQuestion handles PUT /api/workshops/:workshopId/rubric/questions/:questionId
func (h *RubricsHandler) UpdateQuestion(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	questionID := c.Params("questionId")
	if questionID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Question ID required")
	}

	var req dto.UpdateRubricQuestionRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	rubric, err := h.rubricService.UpdateQuestion(c.Context(), workshopID, questionID, req.Title, req.Description, userID)
	if err != nil {
		return serviceError(c, h.logger, err, "update rubric question")
	}

	return c.JSON(rubric)
}

// DeleteQuestion handles DELETE /api/workshops/:workshopId/rubric/questions/:questionId
func (h *RubricsHandler) DeleteQuestion(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	questionID := c.Params("questionId")
	if questionID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Question ID required")
	}

	rubric, err := h.rubricService.DeleteQuestion(c.Context(), workshopID, questionID, userID)
	if err != nil {
		return serviceError(c, h.logger, err, "delete rubric question")
	}

	return c.JSON(rubric)
}

// DeleteRubric handles DELETE /api/workshops/:workshopId/rubric
func (h *RubricsHandler) DeleteRubric(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	if err := h.rubricService.Delete(c.Context(), workshopID, userID); err != nil {
		return serviceError(c, h.logger, err, "delete rubric")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes registers rubric routes
func (h *RubricsHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth())

	scoped.Get("/rubric", h.GetRubric)
	scoped.Get("/rubric/questions", h.ListQuestions)

	facilitator := scoped.Group("", authMiddleware.RequireFacilitator())
	facilitator.Post("/rubric", h.SaveRubric)
	facilitator.Put("/rubric/questions/:questionId", h.UpdateQuestion)
	facilitator.Delete("/rubric/questions/:questionId", h.DeleteQuestion)
	facilitator.Delete("/rubric", h.DeleteRubric)
}
