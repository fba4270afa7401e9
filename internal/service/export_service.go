package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reddlead/gti-pipeline/internal/domain"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"go.uber.org/zap"
)

const maxNoteLength = 500

// ExportPage is one page of the partner event feed. NextCursor is the
// eventTimestamp of the last returned event in epoch milliseconds; feeding it
// back yields strictly newer events.
type ExportPage struct {
	Events     []domain.GTIEvent
	NextCursor *int64
}

// ReceiveRequest is an acknowledgment callback for one exported event.
type ReceiveRequest struct {
	IdempotencyKey string
	Status         string
	Note           string
	CallerIP       string
}

// ExportService serves the partner-facing event feed and its acknowledgment
// callbacks.
type ExportService struct {
	events       repository.GTIEventRepository
	organization string
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
	now          func() time.Time
}

func NewExportService(
	events repository.GTIEventRepository,
	organization string,
	defaultLimit, maxLimit int,
	logger *zap.Logger,
) (*ExportService, error) {
	if events == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if organization == "" {
		return nil, fmt.Errorf("organization is required")
	}
	if defaultLimit <= 0 || maxLimit <= 0 || defaultLimit > maxLimit {
		return nil, fmt.Errorf("invalid export limits: default=%d max=%d", defaultLimit, maxLimit)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ExportService{
		events:       events,
		organization: organization,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Export returns up to limit events strictly after the cursor, oldest first.
// A nil cursor starts from the beginning of the feed.
func (s *ExportService) Export(ctx context.Context, cursor *int64, limit int) (*ExportPage, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	after := time.UnixMilli(0)
	if cursor != nil {
		if *cursor < 0 {
			return nil, fmt.Errorf("%w: cursor must not be negative", domain.ErrValidation)
		}
		after = time.UnixMilli(*cursor)
	}

	events, err := s.events.ListAfter(ctx, s.organization, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	page := &ExportPage{Events: events, NextCursor: cursor}
	if len(events) > 0 {
		next := events[len(events)-1].EventTimestamp.UnixMilli()
		page.NextCursor = &next
	}
	return page, nil
}

// Receive processes one acknowledgment: the event's push status is updated
// from the caller-supplied status and a confirmation row is written. Repeat
// calls with the same key are accepted and each leaves its own confirmation.
func (s *ExportService) Receive(ctx context.Context, req ReceiveRequest) (*domain.GTIEvent, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, fmt.Errorf("%w: idempotencyKey is required", domain.ErrValidation)
	}
	if len(req.Note) > maxNoteLength {
		return nil, fmt.Errorf("%w: note exceeds %d characters", domain.ErrValidation, maxNoteLength)
	}

	event, err := s.events.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}

	status := domain.PushStatusForAck(req.Status)
	if err := s.events.UpdatePushStatus(ctx, key, status); err != nil {
		return nil, fmt.Errorf("failed to update push status: %w", err)
	}
	event.PushStatus = status
	event.NextAttemptAfter = nil

	confirmation := &domain.GTIWebhookConfirmation{
		ID:             uuid.NewString(),
		IdempotencyKey: key,
		Status:         strings.TrimSpace(req.Status),
		Note:           req.Note,
		CallerIP:       req.CallerIP,
		ReceivedAt:     s.now().UTC(),
	}
	if err := s.events.CreateConfirmation(ctx, confirmation); err != nil {
		s.logger.Error("failed to write webhook confirmation",
			zap.String("idempotencyKey", key), zap.Error(err))
	}

	s.logger.Info("event acknowledgment received",
		zap.String("idempotencyKey", key),
		zap.String("pushStatus", status.String()),
		zap.String("callerIp", req.CallerIP),
	)
	return event, nil
}
