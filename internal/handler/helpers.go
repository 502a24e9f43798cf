package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
)

// Pagination represents pagination parameters for list operations.
type Pagination struct {
	Limit  int
	Offset int
}

// DefaultPagination provides default pagination values.
var DefaultPagination = Pagination{Limit: 50, Offset: 0}

// RequireUserID extracts the authenticated participant's ID from the
// request context. If it is missing, it sends an unauthorized response
// and returns an error.
func RequireUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return uuid.Nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "User ID not found",
		})
	}
	return userID, nil
}

// RequireWorkshopID parses the workshop ID from the URL and checks it
// against the workshop the session token is scoped to. A token for one
// workshop cannot touch another.
func RequireWorkshopID(c *fiber.Ctx) (uuid.UUID, error) {
	workshopID, err := uuid.Parse(c.Params("workshopId"))
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid workshop ID",
		})
	}

	authWorkshopID, ok := middleware.GetAuthWorkshopID(c)
	if !ok {
		return uuid.Nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Workshop scope not found",
		})
	}
	if authWorkshopID != workshopID {
		return uuid.Nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "Forbidden",
			"message": "Token is not scoped to this workshop",
		})
	}

	return workshopID, nil
}

// ParsePagination extracts limit and offset query parameters with validation.
// maxLimit specifies the maximum allowed limit (0 for no maximum).
func ParsePagination(c *fiber.Ctx, maxLimit int) Pagination {
	p := Pagination{
		Limit:  parseQueryInt(c, "limit", DefaultPagination.Limit),
		Offset: parseQueryInt(c, "offset", DefaultPagination.Offset),
	}

	if p.Limit < 0 {
		p.Limit = DefaultPagination.Limit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	return p
}

// parseQueryInt parses an integer query parameter with a default value.
func parseQueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorResponse creates a standardized JSON error response.
func errorResponse(c *fiber.Ctx, statusCode int, message string) error {
	errorName := "Error"
	switch statusCode {
	case fiber.StatusBadRequest:
		errorName = "Bad Request"
	case fiber.StatusUnauthorized:
		errorName = "Unauthorized"
	case fiber.StatusForbidden:
		errorName = "Forbidden"
	case fiber.StatusNotFound:
		errorName = "Not Found"
	case fiber.StatusConflict:
		errorName = "Conflict"
	case fiber.StatusPreconditionFailed:
		errorName = "Precondition Failed"
	case fiber.StatusInternalServerError:
		errorName = "Internal Server Error"
	}

	return c.Status(statusCode).JSON(ErrorResponse{
		Error:   errorName,
		Message: message,
	})
}

// serviceError maps a service-layer error to an HTTP response. Application
// errors carry their own status and message; anything else is logged and
// reported as an opaque internal error.
func serviceError(c *fiber.Ctx, log *zap.Logger, err error, action string) error {
	if appErr := apperrors.GetAppError(err); appErr != nil && appErr.Code != apperrors.CodeInternal {
		return errorResponse(c, appErr.StatusCode, appErr.Message)
	}
	log.Error("request failed", zap.String("action", action), zap.Error(err))
	return errorResponse(c, fiber.StatusInternalServerError, "Failed to "+action)
}
