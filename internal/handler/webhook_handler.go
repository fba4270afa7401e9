package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// IntakeService answers inbound call notifications from the dialer.
type IntakeService interface {
	HandleArrival(ctx context.Context, primaryNumber, callUUID string) (string, error)
}

type WebhookHandler struct {
	service IntakeService
}

func NewWebhookHandler(service IntakeService) (*WebhookHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("intake service is required")
	}
	return &WebhookHandler{service: service}, nil
}

// RegisterWebhookRoutes mounts the dialer webhook at its contract path.
// Middleware runs before the handler on this route only; the path itself is
// part of the dialer integration and must stay literal.
func RegisterWebhookRoutes(router fiber.Router, service IntakeService, middleware ...fiber.Handler) error {
	h, err := NewWebhookHandler(service)
	if err != nil {
		return err
	}

	router.Post("/incoming", withMiddleware(middleware, h.IncomingCall)...)
	return nil
}

func withMiddleware(middleware []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(middleware)+1)
	chain = append(chain, middleware...)
	return append(chain, handler)
}

// Field names are the dialer's contract, not ours.
type incomingCallRequest struct {
	PrimaryNumber string `json:"primary_number"`
	CallUUID      string `json:"call_uuid"`
}

func (h *WebhookHandler) IncomingCall(c *fiber.Ctx) error {
	var req incomingCallRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	status, err := h.service.HandleArrival(c.UserContext(), req.PrimaryNumber, req.CallUUID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}
