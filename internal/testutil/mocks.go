// Package testutil provides shared test utilities for the workshop API.
package testutil

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
)

// TestAuthMiddleware creates a middleware that sets a full authenticated
// workshop session in context. Use this in tests to simulate requests
// that passed RequireAuth.
func TestAuthMiddleware(userID, workshopID uuid.UUID, role domain.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.ContextKeyUserID, userID)
		c.Locals(middleware.ContextKeyWorkshopID, workshopID)
		c.Locals(middleware.ContextKeyUserRole, role)
		return c.Next()
	}
}

// TestUserMiddleware creates a middleware that sets only the user ID in
// context. Use this for routes that do not need a workshop scope.
func TestUserMiddleware(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.ContextKeyUserID, userID)
		return c.Next()
	}
}
