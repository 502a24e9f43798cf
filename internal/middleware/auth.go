package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// Context keys for values stored by RequireAuth.
const (
	ContextKeyUserID     = "userID"
	ContextKeyWorkshopID = "authWorkshopID"
	ContextKeyUserRole   = "userRole"
)

// AuthMiddleware validates session tokens
type AuthMiddleware struct {
	authService *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth validates the bearer token and stores the participant's
// identity in the request context.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return unauthorized(c, "Authorization header required")
		}

		claims, err := m.authService.ValidateToken(c.Context(), token)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return unauthorized(c, "Invalid user ID in token")
		}
		workshopID, err := uuid.Parse(claims.WorkshopID)
		if err != nil {
			return unauthorized(c, "Invalid workshop ID in token")
		}

		c.Locals(ContextKeyUserID, userID)
		c.Locals(ContextKeyWorkshopID, workshopID)
		c.Locals(ContextKeyUserRole, domain.UserRole(claims.Role))

		return c.Next()
	}
}

// RequireFacilitator allows only workshop facilitators through. It must run
// after RequireAuth.
func (m *AuthMiddleware) RequireFacilitator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok || !domain.PermissionsForRole(role).CanManageWorkshop {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "facilitator role required",
			})
		}
		return c.Next()
	}
}

// GetUserID gets the authenticated participant's ID from context
func GetUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(ContextKeyUserID).(uuid.UUID)
	return id, ok
}

// GetAuthWorkshopID gets the workshop the token is scoped to
func GetAuthWorkshopID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(ContextKeyWorkshopID).(uuid.UUID)
	return id, ok
}

// GetUserRole gets the authenticated participant's role from context
func GetUserRole(c *fiber.Ctx) (domain.UserRole, bool) {
	role, ok := c.Locals(ContextKeyUserRole).(domain.UserRole)
	return role, ok
}

func extractBearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "Unauthorized",
		"message": message,
	})
}
