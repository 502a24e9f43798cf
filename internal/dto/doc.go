// Package dto contains Data Transfer Objects for HTTP request handling.
//
// DTOs provide:
//   - Type-safe request parsing with struct tags
//   - Declarative validation using go-playground/validator
//   - Separation between API contracts and domain types
//
// Use dto.ParseAndValidate() in handlers to parse and validate requests:
//
//	var req dto.SaveAnnotationRequest
//	if err := dto.ParseAndValidate(c, &req); err != nil {
//	    return err
//	}
package dto
