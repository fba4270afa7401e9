package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reddlead/gti-pipeline/internal/domain"
	"github.com/reddlead/gti-pipeline/internal/observability"
	"github.com/reddlead/gti-pipeline/internal/provider"
	"github.com/reddlead/gti-pipeline/internal/queue"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"github.com/reddlead/gti-pipeline/internal/tracker"
	"go.uber.org/zap"
)

// A job gets at most maxAttempts delivery tries; the schedule is indexed by
// the attempt that just failed, clamped at the last entry.
const maxAttempts = 3

var backoffSchedule = []time.Duration{5 * time.Second, 15 * time.Second, 60 * time.Second}

// DispatchWorker is the single consumer of the postback queue. Every dequeued
// job produces exactly one audit row; transient failures are re-enqueued with
// backoff until the attempt budget runs out.
type DispatchWorker struct {
	queue        queue.Queue
	sender       provider.PostbackSender
	tracker      tracker.CallTracker
	leads        repository.LeadRepository
	logs         repository.PostbackLogRepository
	events       repository.GTIEventRepository
	logger       *zap.Logger
	metrics      *observability.Metrics
	organization string
	now          func() time.Time
}

func NewDispatchWorker(
	q queue.Queue,
	sender provider.PostbackSender,
	callTracker tracker.CallTracker,
	leads repository.LeadRepository,
	logs repository.PostbackLogRepository,
	events repository.GTIEventRepository,
	organization string,
	logger *zap.Logger,
) (*DispatchWorker, error) {
	if q == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("postback sender is required")
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
	if events == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchWorker{
		queue:        q,
		sender:       sender,
		tracker:      callTracker,
		leads:        leads,
		logs:         logs,
		events:       events,
		logger:       logger,
		organization: organization,
		now:          time.Now,
	}, nil
}

func (w *DispatchWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start consumes jobs until the context is canceled or the queue is closed.
func (w *DispatchWorker) Start(ctx context.Context) error {
	w.logger.Info("postback dispatch worker started")

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("postback dispatch worker stopping")
				return nil
			}
			return fmt.Errorf("postback queue closed: %w", err)
		}

		w.process(ctx, job)
		w.metrics.SetQueueDepth(w.queue.Len())
	}
}

func (w *DispatchWorker) process(ctx context.Context, job queue.PostbackJob) {
	logger := w.logger.With(
		zap.String("leadId", job.LeadID),
		zap.String("callUuid", job.CallUUID),
		zap.String("eventType", job.EventType.String()),
		zap.Int("attempt", job.Attempt),
	)

	start := w.now()
	resp, sendErr := w.sender.Send(ctx, job.CallUUID, job.Payload)
	w.metrics.ObservePostbackSendDuration(job.EventType.String(), w.now().Sub(start))

	w.recordAttempt(ctx, job, resp, sendErr)

	if sendErr == nil {
		w.recordDelivery(ctx, job)
		w.metrics.IncPostbackSent(job.EventType.String())
		logger.Info("postback delivered", zap.Int("responseStatus", resp.StatusCode))
		return
	}

	if provider.IsTransient(sendErr) && job.Attempt < maxAttempts {
		retry := job
		retry.Attempt++
		delay := backoffDelay(job.Attempt)
		if err := w.queue.EnqueueAfter(retry, delay); err != nil {
			logger.Error("failed to schedule postback retry", zap.Error(err))
			return
		}
		w.metrics.IncRetryScheduled(job.EventType.String())
		logger.Warn("postback failed, retry scheduled",
			zap.Duration("delay", delay),
			zap.Error(sendErr),
		)
		return
	}

	reason := "permanent_error"
	if provider.IsTransient(sendErr) {
		reason = "retry_exhausted"
	}
	w.metrics.IncPostbackFailed(job.EventType.String(), reason)
	logger.Error("postback permanently failed",
		zap.String("reason", reason),
		zap.Error(sendErr),
	)
}

// recordAttempt writes the audit row and the per-lead history mirror for one
// delivery try. Both writes are best effort: audit failures never change the
// delivery outcome.
func (w *DispatchWorker) recordAttempt(ctx context.Context, job queue.PostbackJob, resp *provider.PostbackResponse, sendErr error) {
	now := w.now().UTC()
	leadID := job.LeadID

	var responseStatus *int
	var responseBody *string
	var errorMessage *string

	if resp != nil {
		status := resp.StatusCode
		responseStatus = &status
		if resp.Body != "" {
			body := resp.Body
			responseBody = &body
		}
	}
	if sendErr != nil {
		message := sendErr.Error()
		errorMessage = &message

		var postbackErr *provider.PostbackError
		if errors.As(sendErr, &postbackErr) && postbackErr.StatusCode > 0 {
			status := postbackErr.StatusCode
			responseStatus = &status
		}
	}

	entry := &domain.PostbackLog{
		ID:             uuid.NewString(),
		LeadID:         &leadID,
		CallUUID:       job.CallUUID,
		PrimaryPhone:   job.PrimaryPhone,
		EventType:      job.EventType,
		Payload:        string(job.Payload),
		ResponseStatus: responseStatus,
		ResponseBody:   responseBody,
		SentAt:         now,
		Trigger:        job.Trigger,
		Error:          sendErr != nil,
		ErrorMessage:   errorMessage,
		Attempt:        job.Attempt,
	}
	if err := w.logs.Create(ctx, entry); err != nil {
		w.logger.Error("failed to write postback log", zap.String("leadId", leadID), zap.Error(err))
	}

	history := &domain.LeadHistoryEntry{
		LeadID:         leadID,
		CallUUID:       job.CallUUID,
		EventType:      job.EventType,
		Payload:        string(job.Payload),
		ResponseStatus: responseStatus,
		Error:          sendErr != nil,
		ErrorMessage:   errorMessage,
		Attempt:        job.Attempt,
		Trigger:        job.Trigger,
		SentAt:         now,
	}
	if err := w.leads.AppendHistory(ctx, history); err != nil {
		w.logger.Error("failed to append postback history", zap.String("leadId", leadID), zap.Error(err))
	}
}

// recordDelivery propagates a successful send: the tracker counts the
// delivery, the lead caches the timestamp, and a business event is recorded
// for the export feed. Each write is independent and best effort.
func (w *DispatchWorker) recordDelivery(ctx context.Context, job queue.PostbackJob) {
	now := w.now().UTC()

	if err := w.tracker.RecordDelivery(ctx, job.PrimaryPhone, now); err != nil {
		w.logger.Error("failed to record delivery in call tracker",
			zap.String("primaryPhone", job.PrimaryPhone), zap.Error(err))
	}

	if err := w.leads.SetLastPostback(ctx, job.LeadID, now); err != nil {
		w.logger.Error("failed to update lead last postback",
			zap.String("leadId", job.LeadID), zap.Error(err))
	}

	// Export cursors are epoch milliseconds and the feed filters with a
	// strict event_timestamp > cursor. A finer-grained timestamp would sort
	// after the floor of its own cursor and be served twice.
	event := &domain.GTIEvent{
		ID:             uuid.NewString(),
		IdempotencyKey: fmt.Sprintf("%s:%s:%d", job.CallUUID, job.EventType, job.Attempt),
		Organization:   w.organization,
		EventTimestamp: now.Truncate(time.Millisecond),
		Payload:        string(job.Payload),
		PushStatus:     domain.PushStatusPending,
	}
	if err := w.events.Create(ctx, event); err != nil {
		w.logger.Error("failed to record delivered event",
			zap.String("idempotencyKey", event.IdempotencyKey), zap.Error(err))
	}
}

func backoffDelay(failedAttempt int) time.Duration {
	idx := failedAttempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	return backoffSchedule[idx]
}
