package repository

import (
	"context"
	"errors"
	"time"

	"github.com/reddlead/gti-pipeline/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GTIEventRepository stores the export feed and its acknowledgment rows.
type GTIEventRepository interface {
	// Create inserts the event; a duplicate idempotency key is a silent
	// no-op, since the same delivery may be recorded at most once.
	Create(ctx context.Context, event *domain.GTIEvent) error
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.GTIEvent, error)
	// ListAfter returns events for one organization strictly after the
	// cursor timestamp, ordered by event timestamp ascending.
	ListAfter(ctx context.Context, organization string, after time.Time, limit int) ([]domain.GTIEvent, error)
	// UpdatePushStatus sets the push status and clears next_attempt_after.
	UpdatePushStatus(ctx context.Context, key string, status domain.PushStatus) error
	CreateConfirmation(ctx context.Context, confirmation *domain.GTIWebhookConfirmation) error
}

type GormGTIEventRepo struct {
	db *gorm.DB
}

func NewGormGTIEventRepo(db *gorm.DB) *GormGTIEventRepo {
	return &GormGTIEventRepo{db: db}
}

func (r *GormGTIEventRepo) Create(ctx context.Context, event *domain.GTIEvent) error {
	if event != nil {
		if err := event.Validate(); err != nil {
			return err
		}
	}

	model := eventModelFromDomain(event)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if event != nil {
		*event = *eventModelToDomain(model)
	}
	return nil
}

func (r *GormGTIEventRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.GTIEvent, error) {
	var model GTIEventModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return eventModelToDomain(&model), nil
}

func (r *GormGTIEventRepo) ListAfter(ctx context.Context, organization string, after time.Time, limit int) ([]domain.GTIEvent, error) {
	var models []GTIEventModel
	err := r.db.WithContext(ctx).
		Where("organization = ? AND event_timestamp > ?", organization, after).
		Order("event_timestamp ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]domain.GTIEvent, 0, len(models))
	for i := range models {
		events = append(events, *eventModelToDomain(&models[i]))
	}
	return events, nil
}

func (r *GormGTIEventRepo) UpdatePushStatus(ctx context.Context, key string, status domain.PushStatus) error {
	result := r.db.WithContext(ctx).
		Model(&GTIEventModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"push_status":        status,
			"next_attempt_after": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormGTIEventRepo) CreateConfirmation(ctx context.Context, confirmation *domain.GTIWebhookConfirmation) error {
	model := confirmationModelFromDomain(confirmation)
	return r.db.WithContext(ctx).Create(model).Error
}
