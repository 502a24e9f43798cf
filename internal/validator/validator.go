package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// V is the singleton validator instance
var V *validator.Validate

func init() {
	V = validator.New()
}

// FieldError represents a single field validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is a collection of field validation failures
type FieldErrors []FieldError

// Error implements the error interface
func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// Validate validates a struct and returns FieldErrors if invalid
func Validate(v any) error {
	if err := V.Struct(v); err != nil {
		return formatErrors(err)
	}
	return nil
}

// IsFieldErrors checks whether an error is a FieldErrors
func IsFieldErrors(err error) bool {
	_, ok := err.(FieldErrors)
	return ok
}

func formatErrors(err error) FieldErrors {
	var out FieldErrors

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			out = append(out, FieldError{
				Field:   jsonFieldName(e.Field()),
				Message: message(e),
			})
		}
	}

	return out
}

// jsonFieldName converts a struct field name to its camelCase JSON form
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "min":
		if e.Type().Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Type().Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed validation: %s", e.Tag())
	}
}
