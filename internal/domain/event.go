package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventType identifies the two outbound postback event kinds.
type EventType string

const (
	EventTypeDispose  EventType = "dispose"
	EventTypeProgress EventType = "progress"
)

func (t EventType) String() string { return string(t) }

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeDispose, EventTypeProgress:
		return true
	}
	return false
}

func ParseEventTypeFromString(s string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid event type %q", ErrValidation, s)
	}
	return t, nil
}

// PushStatus is the export-side delivery state of a recorded business event.
type PushStatus string

const (
	PushStatusPending   PushStatus = "PENDING"
	PushStatusSent      PushStatus = "SENT"
	PushStatusConfirmed PushStatus = "CONFIRMED"
	PushStatusSkipped   PushStatus = "SKIPPED"
)

func (s PushStatus) String() string { return string(s) }

func (s PushStatus) IsValid() bool {
	switch s {
	case PushStatusPending, PushStatusSent, PushStatusConfirmed, PushStatusSkipped:
		return true
	}
	return false
}

// PushStatusForAck maps a caller-supplied acknowledgment status to the
// resulting push status. Unknown or empty values mean a plain receipt.
func PushStatusForAck(status string) PushStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirmed":
		return PushStatusConfirmed
	case "duplicate":
		return PushStatusSkipped
	default:
		return PushStatusSent
	}
}

// GTIEvent is an exported business event the integration partner pages
// through via the export API. IdempotencyKey is globally unique.
type GTIEvent struct {
	ID               string
	IdempotencyKey   string
	Organization     string
	EventTimestamp   time.Time
	Payload          string
	PushStatus       PushStatus
	NextAttemptAfter *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e *GTIEvent) Validate() error {
	if strings.TrimSpace(e.IdempotencyKey) == "" {
		return fmt.Errorf("%w: idempotency key is required", ErrValidation)
	}
	if strings.TrimSpace(e.Organization) == "" {
		return fmt.Errorf("%w: organization is required", ErrValidation)
	}
	if !e.PushStatus.IsValid() {
		return fmt.Errorf("%w: invalid push status %q", ErrValidation, e.PushStatus)
	}
	return nil
}

// GTIWebhookConfirmation records one acknowledgment callback. A row is
// written on every /receive call, repeats included.
type GTIWebhookConfirmation struct {
	ID             string
	IdempotencyKey string
	Status         string
	Note           string
	CallerIP       string
	ReceivedAt     time.Time
}

// IntegrationLog mirrors one export/receive API call, gate rejections
// included. It is the primary tool for diagnosing partner issues.
type IntegrationLog struct {
	ID        string
	Route     string
	Method    string
	Status    int
	CallerIP  string
	Headers   string
	Query     string
	Body      string
	Message   string
	CreatedAt time.Time
}
