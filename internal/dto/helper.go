package dto

import (
	"github.com/gofiber/fiber/v2"

	"github.com/evalworkshop/evalworkshop/api/internal/validator"
)

// ParseAndValidate decodes the JSON body into dst and runs struct
// validation. On failure it writes the 400 response itself, so handlers
// can return its result directly.
func ParseAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body: " + err.Error(),
		})
	}

	err := validator.Validate(dst)
	if err == nil {
		return nil
	}

	resp := fiber.Map{"error": "Bad Request", "message": err.Error()}
	if fieldErrors, ok := err.(validator.FieldErrors); ok {
		resp = fiber.Map{
			"error":   "Validation Error",
			"message": "Request validation failed",
			"errors":  fieldErrors,
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(resp)
}
