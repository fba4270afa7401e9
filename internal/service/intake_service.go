package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/reddlead/gti-pipeline/internal/domain"
	"github.com/reddlead/gti-pipeline/internal/observability"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"github.com/reddlead/gti-pipeline/internal/tracker"
	"go.uber.org/zap"
)

// Webhook responses are part of the dialer contract, verbatim.
const (
	StatusNewLead   = "new lead"
	StatusDuplicate = "duplicate"
)

// IntakeService handles call-arrival notifications: it records the
// correlation in the tracker and answers whether the calling number matches
// an existing lead.
type IntakeService struct {
	tracker tracker.CallTracker
	leads   repository.LeadRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewIntakeService(
	callTracker tracker.CallTracker,
	leads repository.LeadRepository,
	logger *zap.Logger,
) (*IntakeService, error) {
	if callTracker == nil {
		return nil, fmt.Errorf("call tracker is required")
	}
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntakeService{
		tracker: callTracker,
		leads:   leads,
		logger:  logger,
	}, nil
}

func (s *IntakeService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// HandleArrival records the inbound call and reports the duplicate check
// outcome. Validation failures wrap domain.ErrValidation so the handler can
// answer 400 without leaking internals on real errors.
func (s *IntakeService) HandleArrival(ctx context.Context, primaryNumber, callUUID string) (string, error) {
	primaryNumber = strings.TrimSpace(primaryNumber)
	callUUID = strings.TrimSpace(callUUID)

	if primaryNumber == "" {
		return "", fmt.Errorf("%w: primary_number is required", domain.ErrValidation)
	}
	if callUUID == "" {
		return "", fmt.Errorf("%w: call_uuid is required", domain.ErrValidation)
	}

	normalized := domain.NormalizeToE164(primaryNumber)
	if normalized == "" {
		return "", fmt.Errorf("%w: primary_number is not a valid phone number", domain.ErrValidation)
	}

	if err := s.tracker.TouchArrival(ctx, normalized, callUUID); err != nil {
		return "", fmt.Errorf("failed to record call arrival: %w", err)
	}

	// Stored lead phones come in many historical formats, so the duplicate
	// check matches the variant union of the raw and normalized number.
	variants := unionVariants(primaryNumber, normalized)
	count, err := s.leads.CountByPhoneVariants(ctx, variants)
	if err != nil {
		return "", fmt.Errorf("failed to count leads by phone: %w", err)
	}

	s.logger.Info("inbound call recorded",
		zap.String("primaryPhone", normalized),
		zap.String("callUuid", callUUID),
		zap.Int64("matchingLeads", count),
	)

	if count == 0 {
		s.metrics.IncInboundCall("new")
		return StatusNewLead, nil
	}
	s.metrics.IncInboundCall("duplicate")
	return StatusDuplicate, nil
}

func unionVariants(numbers ...string) []string {
	seen := make(map[string]struct{}, 8)
	union := make([]string, 0, 8)
	for _, number := range numbers {
		for _, v := range domain.BuildPhoneVariants(number) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			union = append(union, v)
		}
	}
	return union
}
