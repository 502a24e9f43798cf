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

// AuthHandler handles registration and login endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /api/workshops/:workshopId/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	workshopID, err := uuid.Parse(c.Params("workshopId"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid workshop ID")
	}

	var req dto.RegisterRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	role := domain.UserRole(req.Role)
	if req.Role == "" {
		role = domain.RoleParticipant
	}

	result, err := h.authService.Register(c.Context(), &domain.UserInput{
		Email:      req.Email,
		Name:       req.Name,
		Role:       role,
		WorkshopID: workshopID,
		Password:   req.Password,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "register participant")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /api/workshops/:workshopId/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	workshopID, err := uuid.Parse(c.Params("workshopId"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid workshop ID")
	}

	var req dto.LoginRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Context(), workshopID, req.Email, req.Password)
	if err != nil {
		return serviceError(c, h.logger, err, "log in")
	}

	return c.JSON(result)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.GetUser(c.Context(), userID)
	if err != nil {
		return serviceError(c, h.logger, err, "load participant")
	}

	return c.JSON(fiber.Map{
		"user":        user,
		"permissions": domain.PermissionsForRole(user.Role),
	})
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	app.Post("/api/workshops/:workshopId/auth/register", h.Register)
	app.Post("/api/workshops/:workshopId/auth/login", h.Login)
	app.Get("/api/auth/me", authMiddleware.RequireAuth(), h.Me)
}
