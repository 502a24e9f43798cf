package handler

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/middleware"
	"github.com/evalworkshop/evalworkshop/api/internal/service"
)

// EventsHandler handles the workshop event log and SSE streaming
type EventsHandler struct {
	realtimeService *service.RealtimeService
	events          service.EventRepository
	logger          *zap.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(realtimeService *service.RealtimeService, events service.EventRepository, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		realtimeService: realtimeService,
		events:          events,
		logger:          logger,
	}
}

// StreamEvents handles GET /api/workshops/:workshopId/events/stream
func (h *EventsHandler) StreamEvents(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	sub := h.realtimeService.Subscribe(c.Context(), workshopID)

	h.logger.Info("SSE client connected",
		zap.String("workshop_id", workshopID.String()),
		zap.String("subscriber_id", sub.ID),
	)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		fmt.Fprintf(w, "event: connected\n")
		fmt.Fprintf(w, "data: {\"subscriberId\":\"%s\"}\n\n", sub.ID)
		w.Flush()

		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-sub.Channel:
				if !ok {
					return
				}

				frame := service.FormatSSE(event)
				if frame == "" {
					h.logger.Error("failed to format SSE event", zap.String("type", event.Type))
					continue
				}

				fmt.Fprint(w, frame)
				w.Flush()

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				w.Flush()

			case <-sub.Done:
				return
			}
		}
	}))

	return nil
}

// ListEvents handles GET /api/workshops/:workshopId/events
func (h *EventsHandler) ListEvents(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	p := ParsePagination(c, 500)
	events, err := h.events.ListByWorkshop(c.Context(), workshopID, p.Limit)
	if err != nil {
		return serviceError(c, h.logger, err, "list events")
	}

	return c.JSON(fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

// GetSubscribers handles GET /api/workshops/:workshopId/events/subscribers
func (h *EventsHandler) GetSubscribers(c *fiber.Ctx) error {
	workshopID, err := RequireWorkshopID(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"count": h.realtimeService.SubscriberCount(workshopID),
	})
}

// RegisterRoutes registers event routes
func (h *EventsHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	scoped := app.Group("/api/workshops/:workshopId", authMiddleware.RequireAuth())

	scoped.Get("/events", h.ListEvents)
	scoped.Get("/events/stream", h.StreamEvents)
	scoped.Get("/events/subscribers", h.GetSubscribers)
}
