package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/reddlead/gti-pipeline/internal/domain"
	"github.com/reddlead/gti-pipeline/internal/service"
	"github.com/reddlead/gti-pipeline/internal/transport"
	"go.uber.org/zap"
)

func newWebhookTestApp(t *testing.T, svc IntakeService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterWebhookRoutes(app, svc); err != nil {
		t.Fatalf("RegisterWebhookRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func TestWebhookIncomingCall(t *testing.T) {
	t.Parallel()

	svc := &stubIntakeService{
		handleArrivalFn: func(ctx context.Context, primaryNumber, callUUID string) (string, error) {
			if primaryNumber != "5551234567" || callUUID != "call-1" {
				t.Fatalf("args = %q %q", primaryNumber, callUUID)
			}
			return service.StatusNewLead, nil
		},
	}

	app := newWebhookTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/incoming",
		`{"primary_number":"5551234567","call_uuid":"call-1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["status"] != service.StatusNewLead {
		t.Fatalf("status = %v, want %q", parsed["status"], service.StatusNewLead)
	}
}

func TestWebhookIncomingCallDuplicate(t *testing.T) {
	t.Parallel()

	svc := &stubIntakeService{
		handleArrivalFn: func(ctx context.Context, primaryNumber, callUUID string) (string, error) {
			return service.StatusDuplicate, nil
		},
	}

	app := newWebhookTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/incoming",
		`{"primary_number":"5551234567","call_uuid":"call-2"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["status"] != service.StatusDuplicate {
		t.Fatalf("status = %v, want %q", parsed["status"], service.StatusDuplicate)
	}
}

func TestWebhookIncomingCallValidation(t *testing.T) {
	t.Parallel()

	svc := &stubIntakeService{
		handleArrivalFn: func(ctx context.Context, primaryNumber, callUUID string) (string, error) {
			return "", fmt.Errorf("%w: primary_number is required", domain.ErrValidation)
		},
	}

	app := newWebhookTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/incoming", `{"call_uuid":"call-1"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["message"] == nil || parsed["message"] == "" {
		t.Fatalf("body = %s, want a message field", string(body))
	}
}

func TestWebhookIncomingCallMalformedBody(t *testing.T) {
	t.Parallel()

	app := newWebhookTestApp(t, &stubIntakeService{})

	resp, _ := performRequest(t, app, http.MethodPost, "/incoming", `{not json`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookIncomingCallInternalErrorIsMasked(t *testing.T) {
	t.Parallel()

	svc := &stubIntakeService{
		handleArrivalFn: func(ctx context.Context, primaryNumber, callUUID string) (string, error) {
			return "", errors.New("redis: connection pool exhausted")
		},
	}

	app := newWebhookTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPost, "/incoming",
		`{"primary_number":"5551234567","call_uuid":"call-1"}`)
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["message"] != "Internal server error" {
		t.Fatalf("message = %v, internals must not leak", parsed["message"])
	}
}

type stubIntakeService struct {
	handleArrivalFn func(ctx context.Context, primaryNumber, callUUID string) (string, error)
}

func (s *stubIntakeService) HandleArrival(ctx context.Context, primaryNumber, callUUID string) (string, error) {
	if s.handleArrivalFn != nil {
		return s.handleArrivalFn(ctx, primaryNumber, callUUID)
	}
	return service.StatusNewLead, nil
}
