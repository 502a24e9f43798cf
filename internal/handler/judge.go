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

// JudgeHandler handles judge prompt and evaluation endpoints
type JudgeHandler struct {
	judgeService *service.JudgeService
	logger       *zap.Logger
}

// NewJudgeHandler creates a new judge handler
func NewJudgeHandler(judgeService *service.JudgeService, logger *zap.Logger) *JudgeHandler {
	return &JudgeHandler{
		judgeService: judgeService,
		logger:       logger,
	}
}

// CreatePrompt handles POST /api/workshops/:workshopId/judge/prompts
func (h *JudgeHandler) CreatePrompt(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateJudgePromptRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	prompt, err := h.judgeService.CreatePrompt(c.Context(), workshopID, &domain.JudgePromptInput{
		PromptText:      req.PromptText,
		FewShotExamples: req.FewShotExamples,
		ModelName:       req.ModelName,
		CreatedBy:       userID,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "create judge prompt")
	}

	return c.Status(fiber.StatusCreated).JSON(prompt)
}

// ListPrompts handles GET /api/workshops/:workshopId/judge/prompts
func (h *JudgeHandler) ListPrompts(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	prompts, err := h.judgeService.ListPrompts(c.Context(), workshopID)
	if err != nil {
		return serviceError(c, h.logger, err, "list judge prompts")
	}

	return c.JSON(fiber.Map{
		"prompts": prompts,
		"count":   len(prompts),
	})
}

// GetPrompt handles GET /api/workshops/:workshopId/judge/prompts/:promptId
func (h *JudgeHandler) GetPrompt(c *fiber.Ctx) error {
	if _, err := RequireWorkshopID(c); err != nil {
		return err
	}

	promptID, err := uuid.Parse(c.Params("promptId"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid prompt ID")
	}

	prompt, err := h.judgeService.GetPrompt(c.Context(), promptID)
	if err != nil {
		return serviceError(c, h.logger, err, "get judge prompt")
	}

	return c.JSON(prompt)
}

// Evaluate handles POST /api/workshops/:workshopId/judge/evaluate
func (h *JudgeHandler) Evaluate(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	var req dto.EvaluateJudgeRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	promptID, err := uuid.Parse(req.PromptID)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid prompt ID")
	}

	result, err := h.judgeService.Evaluate(c.Context(), workshopID, promptID, req.TraceIDs)
	if err != nil {
		return serviceError(c, h.logger, err, "evaluate judge prompt")
	}

	return c.JSON(result)
}

// RegisterRoutes registers judge routes
func (h *JudgeHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth(), authMiddleware.RequireFacilitator())

	scoped.Post("/judge/prompts", h.CreatePrompt)
	scoped.Get("/judge/prompts", h.ListPrompts)
	scoped.Get("/judge/prompts/:promptId", h.GetPrompt)
	scoped.Post("/judge/evaluate", h.Evaluate)
}
