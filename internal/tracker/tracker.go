package tracker

import (
	"context"
	"time"

	"github.com/reddlead/gti-pipeline/internal/domain"
)

// CallTracker is the TTL-backed store of recent inbound call arrivals keyed
// by normalized phone. Per phone the lifecycle is (none) -> recorded ->
// consumed; expiry is a storage-layer deletion equivalent to (none).
type CallTracker interface {
	// TouchArrival upserts the record for primaryPhone in a single atomic
	// write: callUuid and receivedAt are replaced, consumed is forced false,
	// sendCount starts at zero on first creation, and the TTL is refreshed.
	TouchArrival(ctx context.Context, primaryPhone, callUUID string) error

	// Find returns the current record for primaryPhone or domain.ErrNotFound.
	Find(ctx context.Context, primaryPhone string) (*domain.InboundCallRecord, error)

	// MarkConsumed flags the record as matched to an outgoing postback.
	MarkConsumed(ctx context.Context, primaryPhone string) error

	// RecordDelivery notes one successful postback: sendCount increments,
	// lastSentAt is set, and the record is marked consumed.
	RecordDelivery(ctx context.Context, primaryPhone string, at time.Time) error
}
