package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	"github.com/evalworkshop/evalworkshop/api/internal/dto"
	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
	"github.com/evalworkshop/evalworkshop/api/internal/worker"
)

// IntakeHandler handles external trace intake endpoints. Intake runs in the
// background; the connection test runs inline so the facilitator gets an
// immediate answer.
type IntakeHandler struct {
	intakeService *service.IntakeService
	asynqClient   *asynq.Client
	logger        *zap.Logger
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intakeService *service.IntakeService, asynqClient *asynq.Client, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
		asynqClient:   asynqClient,
		logger:        logger,
	}
}

// StartIntake handles POST /api/workshops/:workshopId/intake
func (h *IntakeHandler) StartIntake(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	var req dto.IntakeTracesRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	request := domain.IntakeRequest{
		Host:         req.Host,
		Token:        req.Token,
		ExperimentID: req.ExperimentID,
		MaxTraces:    req.MaxTraces,
		Filter:       req.Filter,
	}

	// Without a queue client, run the pull inline.
	if h.asynqClient == nil {
		result, err := h.intakeService.Run(c.Context(), workshopID, &request)
		if err != nil {
			return serviceError(c, h.logger, err, "run trace intake")
		}
		return c.JSON(result)
	}

	task, err := worker.NewTraceIntakeTask(&worker.TraceIntakePayload{
		WorkshopID: workshopID,
		Request:    request,
	})
	if err != nil {
		h.logger.Error("failed to create intake task", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to queue trace intake")
	}

	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		h.logger.Error("failed to enqueue intake task", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to queue trace intake")
	}

	h.logger.Info("trace intake queued",
		zap.String("workshop_id", workshopID.String()),
		zap.String("task_id", info.ID),
		zap.String("experiment_id", req.ExperimentID),
	)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"taskId":  info.ID,
		"status":  "queued",
		"message": "Trace intake has been queued for processing",
	})
}

// TestConnection handles POST /api/workshops/:workshopId/intake/test
func (h *IntakeHandler) TestConnection(c *fiber.Ctx) error {
	if _, err := RequireWorkshopID(c); err != nil {
		return err
	}

	var req dto.IntakeTracesRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	err := h.intakeService.TestConnection(c.Context(), &domain.IntakeRequest{
		Host:         req.Host,
		Token:        req.Token,
		ExperimentID: req.ExperimentID,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "test trace server connection")
	}

	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Trace server connection succeeded",
	})
}

// RegisterRoutes registers intake routes
func (h *IntakeHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth(), authMiddleware.RequireFacilitator())

	scoped.Post("/intake", h.StartIntake)
	scoped.Post("/intake/test", h.TestConnection)
}
