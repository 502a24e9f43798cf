// Package handler contains HTTP request handlers for the workshop API.
//
// Handlers are the entry point for HTTP requests, responsible for:
//   - Request parsing and validation
//   - Authentication context extraction
//   - Calling appropriate services
//   - Response formatting
//   - Error response mapping
//
// # Route Organization
//
// Routes are organized by resource under a workshop scope:
//   - /api/workshops - workshop creation and listing (no auth required)
//   - /api/workshops/:workshopId/auth/* - registration and login (no auth required)
//   - /api/workshops/:workshopId/* - workshop-scoped routes (JWT authentication)
//
// A session token is scoped to one workshop; handlers reject requests
// whose URL names a different workshop than the token.
//
// # Error Handling
//
// Handlers convert domain errors to appropriate HTTP status codes
// using the apperrors package for consistent error responses.
//
// # Thread Safety
//
// All handlers are safe for concurrent use.
package handler
