package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	// Health and version routes (no auth required)
	deps.HealthHandler.RegisterRoutes(app)

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Workshop API. Each handler guards its own routes: workshop creation
	// and per-workshop register/login are public, everything else requires
	// a session token scoped to the workshop in the URL.
	auth := deps.AuthMiddleware
	deps.AuthHandler.RegisterRoutes(app, auth)
	deps.WorkshopsHandler.RegisterRoutes(app, auth)
	deps.PhasesHandler.RegisterRoutes(app, auth)
	deps.TracesHandler.RegisterRoutes(app, auth)
	deps.FindingsHandler.RegisterRoutes(app, auth)
	deps.RubricsHandler.RegisterRoutes(app, auth)
	deps.AnnotationsHandler.RegisterRoutes(app, auth)
	deps.ResultsHandler.RegisterRoutes(app, auth)
	deps.JudgeHandler.RegisterRoutes(app, auth)
	deps.IntakeHandler.RegisterRoutes(app, auth)
	deps.ExportHandler.RegisterRoutes(app, auth)
	deps.EventsHandler.RegisterRoutes(app, auth)
}
