package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reddlead/gti-pipeline/internal/domain"
	"github.com/reddlead/gti-pipeline/internal/observability"
	"github.com/reddlead/gti-pipeline/internal/queue"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"github.com/reddlead/gti-pipeline/internal/tracker"
	"go.uber.org/zap"
)

// SendRequest asks for a postback on behalf of a lead. InboundCall is
// optional: when nil the service resolves the correlation from the tracker
// using the lead's phone.
type SendRequest struct {
	Lead        *domain.Lead
	EventType   domain.EventType
	Trigger     string
	InboundCall *domain.InboundCallRecord
}

// PostbackService validates postback requests, resolves call correlation and
// hands sendable jobs to the dispatch queue. It never blocks the caller on
// delivery.
type PostbackService struct {
	queue   queue.Queue
	tracker tracker.CallTracker
	leads   repository.LeadRepository
	logs    repository.PostbackLogRepository
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewPostbackService(
	q queue.Queue,
	callTracker tracker.CallTracker,
	leads repository.LeadRepository,
	logs repository.PostbackLogRepository,
	logger *zap.Logger,
) (*PostbackService, error) {
	if q == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if callTracker == nil {
		return nil, fmt.Errorf("call tracker is required")
	}
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("postback log repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PostbackService{
		queue:   q,
		tracker: callTracker,
		leads:   leads,
		logs:    logs,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *PostbackService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Send enqueues one postback for the lead. An unsupported event type is a
// caller bug: it is logged and dropped without an audit row. A lead with no
// resolvable inbound call gets a skipped audit row and no delivery.
func (s *PostbackService) Send(ctx context.Context, req SendRequest) error {
	if req.Lead == nil {
		return fmt.Errorf("%w: lead is required", domain.ErrValidation)
	}
	if !req.EventType.IsValid() {
		s.logger.Warn("dropping postback with unsupported event type",
			zap.String("leadId", req.Lead.ID),
			zap.String("eventType", string(req.EventType)),
		)
		return nil
	}

	record := req.InboundCall
	if record == nil {
		record = s.resolveInboundCall(ctx, req.Lead)
	}
	if record == nil {
		s.recordSkipped(ctx, req)
		s.metrics.IncPostbackFailed(req.EventType.String(), "no_correlation")
		return nil
	}

	payload, err := s.buildPayload(req.Lead, req.EventType, record.CallUUID)
	if err != nil {
		return fmt.Errorf("failed to build postback payload: %w", err)
	}

	job := queue.PostbackJob{
		LeadID:       req.Lead.ID,
		EventType:    req.EventType,
		CallUUID:     record.CallUUID,
		PrimaryPhone: record.PrimaryPhone,
		Payload:      payload,
		Attempt:      1,
		Trigger:      req.Trigger,
	}
	if err := s.queue.Enqueue(job); err != nil {
		return fmt.Errorf("failed to enqueue postback: %w", err)
	}
	s.metrics.SetQueueDepth(s.queue.Len())

	s.logger.Info("postback enqueued",
		zap.String("leadId", req.Lead.ID),
		zap.String("callUuid", record.CallUUID),
		zap.String("eventType", req.EventType.String()),
		zap.String("trigger", req.Trigger),
	)
	return nil
}

func (s *PostbackService) buildPayload(lead *domain.Lead, eventType domain.EventType, callUUID string) ([]byte, error) {
	now := s.now()
	switch eventType {
	case domain.EventTypeDispose:
		return json.Marshal(domain.BuildDisposePayload(lead, callUUID, now))
	case domain.EventTypeProgress:
		return json.Marshal(domain.BuildProgressPayload(lead, callUUID, now))
	default:
		return nil, fmt.Errorf("%w: unsupported event type %q", domain.ErrValidation, eventType)
	}
}

// resolveInboundCall looks up the tracker entry for the lead's phone and
// backfills the lead's stored correlation when it is stale. Returns nil when
// no entry exists or the phone cannot be normalized.
func (s *PostbackService) resolveInboundCall(ctx context.Context, lead *domain.Lead) *domain.InboundCallRecord {
	phone := domain.NormalizeToE164(lead.Phone)
	if phone == "" {
		s.logger.Warn("lead phone cannot be normalized",
			zap.String("leadId", lead.ID),
			zap.String("phone", lead.Phone),
		)
		return nil
	}

	record, err := s.tracker.Find(ctx, phone)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to look up inbound call", zap.String("leadId", lead.ID), zap.Error(err))
		}
		return nil
	}

	if lead.GTIPrimaryPhone != record.PrimaryPhone || lead.GTICallUUID != record.CallUUID {
		if err := s.leads.UpdateGTICorrelation(ctx, lead.ID, record.PrimaryPhone, record.CallUUID); err != nil {
			s.logger.Error("failed to backfill lead correlation", zap.String("leadId", lead.ID), zap.Error(err))
		} else {
			lead.GTIPrimaryPhone = record.PrimaryPhone
			lead.GTICallUUID = record.CallUUID
		}
	}

	if !record.Consumed {
		if err := s.tracker.MarkConsumed(ctx, phone); err != nil {
			s.logger.Error("failed to mark inbound call consumed", zap.String("leadId", lead.ID), zap.Error(err))
		} else {
			record.Consumed = true
		}
	}

	return record
}

// recordSkipped writes the audit trail for a postback that never left the
// process. Both writes are best effort: a failed audit must not break the
// caller's flow.
func (s *PostbackService) recordSkipped(ctx context.Context, req SendRequest) {
	now := s.now().UTC()
	message := fmt.Sprintf("no inbound call found for lead phone %q", req.Lead.Phone)
	leadID := req.Lead.ID

	entry := &domain.PostbackLog{
		ID:           uuid.NewString(),
		LeadID:       &leadID,
		CallUUID:     "",
		PrimaryPhone: domain.NormalizeToE164(req.Lead.Phone),
		EventType:    req.EventType,
		Payload:      "",
		SentAt:       now,
		Trigger:      req.Trigger,
		Error:        true,
		ErrorMessage: &message,
		Attempt:      1,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write skipped postback log", zap.String("leadId", leadID), zap.Error(err))
	}

	history := &domain.LeadHistoryEntry{
		LeadID:       leadID,
		EventType:    req.EventType,
		CallUUID:     "",
		Trigger:      req.Trigger,
		SentAt:       now,
		Error:        true,
		ErrorMessage: &message,
		Attempt:      1,
	}
	if err := s.leads.AppendHistory(ctx, history); err != nil {
		s.logger.Error("failed to append skipped postback history", zap.String("leadId", leadID), zap.Error(err))
	}

	s.logger.Warn("postback skipped, no inbound call correlation",
		zap.String("leadId", leadID),
		zap.String("eventType", req.EventType.String()),
		zap.String("trigger", req.Trigger),
	)
}
