package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/reddlead/gti-pipeline/internal/domain"
	"github.com/reddlead/gti-pipeline/internal/service"
)

// ExportService serves the partner event feed and its acknowledgments.
type ExportService interface {
	Export(ctx context.Context, cursor *int64, limit int) (*service.ExportPage, error)
	Receive(ctx context.Context, req service.ReceiveRequest) (*domain.GTIEvent, error)
}

type ExportHandler struct {
	service ExportService
}

func NewExportHandler(service ExportService) (*ExportHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("export service is required")
	}
	return &ExportHandler{service: service}, nil
}

// RegisterExportRoutes mounts the partner feed at its contract paths. The
// access gate and rate limiter arrive as middleware so they guard exactly
// these two routes and nothing else.
func RegisterExportRoutes(router fiber.Router, service ExportService, middleware ...fiber.Handler) error {
	h, err := NewExportHandler(service)
	if err != nil {
		return err
	}

	router.Get("/export", withMiddleware(middleware, h.Export)...)
	router.Post("/receive", withMiddleware(middleware, h.Receive)...)
	return nil
}

type exportedEvent struct {
	IdempotencyKey string          `json:"idempotencyKey"`
	Organization   string          `json:"organization"`
	EventTimestamp int64           `json:"eventTimestamp"`
	Payload        json.RawMessage `json:"payload"`
	PushStatus     string          `json:"pushStatus"`
}

func (h *ExportHandler) Export(c *fiber.Ctx) error {
	var cursor *int64
	if raw := strings.TrimSpace(c.Query("cursor")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "cursor must be epoch milliseconds")
		}
		cursor = &value
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = value
	}

	page, err := h.service.Export(c.UserContext(), cursor, limit)
	if err != nil {
		return toHTTPError(err)
	}

	events := make([]exportedEvent, 0, len(page.Events))
	for _, e := range page.Events {
		payload := json.RawMessage(e.Payload)
		if !json.Valid(payload) {
			payload, _ = json.Marshal(e.Payload)
		}
		events = append(events, exportedEvent{
			IdempotencyKey: e.IdempotencyKey,
			Organization:   e.Organization,
			EventTimestamp: e.EventTimestamp.UnixMilli(),
			Payload:        payload,
			PushStatus:     e.PushStatus.String(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"events":     events,
		"nextCursor": page.NextCursor,
		"cursorType": "eventTimestamp",
	})
}

type receiveRequest struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Status         string `json:"status"`
	Note           string `json:"note"`
}

func (h *ExportHandler) Receive(c *fiber.Ctx) error {
	var req receiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	event, err := h.service.Receive(c.UserContext(), service.ReceiveRequest{
		IdempotencyKey: req.IdempotencyKey,
		Status:         req.Status,
		Note:           req.Note,
		CallerIP:       c.IP(),
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":        "received",
		"idempotencyKey": event.IdempotencyKey,
		"pushStatus":     event.PushStatus.String(),
	})
}
