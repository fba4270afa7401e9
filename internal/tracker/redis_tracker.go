package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/reddlead/gti-pipeline/internal/domain"
)

const (
	defaultTTLDays = 30

	fieldCallUUID   = "callUuid"
	fieldReceivedAt = "receivedAt"
	fieldLastSentAt = "lastSentAt"
	fieldSendCount  = "sendCount"
	fieldConsumed   = "consumed"
)

var _ CallTracker = (*RedisCallTracker)(nil)

// RedisCallTracker stores one hash per phone under inbound_call:{phone} with
// a key TTL bounding storage growth. Correlation ids are only useful for a
// short window after a call, so expired records simply vanish.
type RedisCallTracker struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisCallTracker(client *goredis.Client, ttlDays int) (*RedisCallTracker, error) {
	return newRedisCallTracker(client, ttlDays, time.Now)
}

func newRedisCallTracker(client *goredis.Client, ttlDays int, nowFn func() time.Time) (*RedisCallTracker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttlDays <= 0 {
		ttlDays = defaultTTLDays
	}
	if nowFn == nil {
		nowFn = time.Now
	}

	return &RedisCallTracker{
		client: client,
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
		now:    nowFn,
	}, nil
}

func recordKey(primaryPhone string) string {
	return "inbound_call:" + primaryPhone
}

func (t *RedisCallTracker) TouchArrival(ctx context.Context, primaryPhone, callUUID string) error {
	if t == nil || t.client == nil {
		return fmt.Errorf("call tracker is not initialized")
	}
	if strings.TrimSpace(primaryPhone) == "" {
		return fmt.Errorf("%w: primary phone is required", domain.ErrValidation)
	}
	if strings.TrimSpace(callUUID) == "" {
		return fmt.Errorf("%w: call uuid is required", domain.ErrValidation)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key := recordKey(primaryPhone)
	receivedAt := t.now().UTC()

	// Overwrite, not merge: a new arrival replaces the correlation wholesale
	// and resets consumption. HSETNX seeds sendCount only on first creation.
	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldCallUUID:   callUUID,
		fieldReceivedAt: receivedAt.Format(time.RFC3339Nano),
		fieldConsumed:   "0",
	})
	pipe.HSetNX(ctx, key, fieldSendCount, "0")
	pipe.Expire(ctx, key, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record call arrival: %w", err)
	}

	return nil
}

func (t *RedisCallTracker) Find(ctx context.Context, primaryPhone string) (*domain.InboundCallRecord, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("call tracker is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	values, err := t.client.HGetAll(ctx, recordKey(primaryPhone)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read call record: %w", err)
	}
	if len(values) == 0 {
		return nil, domain.ErrNotFound
	}

	return recordFromHash(primaryPhone, values)
}

func (t *RedisCallTracker) MarkConsumed(ctx context.Context, primaryPhone string) error {
	if t == nil || t.client == nil {
		return fmt.Errorf("call tracker is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := t.client.HSet(ctx, recordKey(primaryPhone), fieldConsumed, "1").Err(); err != nil {
		return fmt.Errorf("failed to mark call record consumed: %w", err)
	}
	return nil
}

func (t *RedisCallTracker) RecordDelivery(ctx context.Context, primaryPhone string, at time.Time) error {
	if t == nil || t.client == nil {
		return fmt.Errorf("call tracker is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key := recordKey(primaryPhone)
	pipe := t.client.TxPipeline()
	pipe.HIncrBy(ctx, key, fieldSendCount, 1)
	pipe.HSet(ctx, key, map[string]any{
		fieldLastSentAt: at.UTC().Format(time.RFC3339Nano),
		fieldConsumed:   "1",
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

func recordFromHash(primaryPhone string, values map[string]string) (*domain.InboundCallRecord, error) {
	record := &domain.InboundCallRecord{
		PrimaryPhone: primaryPhone,
		CallUUID:     values[fieldCallUUID],
		Consumed:     values[fieldConsumed] == "1",
	}

	if raw := values[fieldReceivedAt]; raw != "" {
		receivedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt receivedAt on call record %q: %w", primaryPhone, err)
		}
		record.ReceivedAt = receivedAt
	}

	if raw := values[fieldLastSentAt]; raw != "" {
		lastSentAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt lastSentAt on call record %q: %w", primaryPhone, err)
		}
		record.LastSentAt = &lastSentAt
	}

	if raw := values[fieldSendCount]; raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt sendCount on call record %q: %w", primaryPhone, err)
		}
		record.SendCount = count
	}

	return record, nil
}
