package repository

import (
	"context"
	"errors"
	"time"

	"github.com/reddlead/gti-pipeline/internal/domain"
	"gorm.io/gorm"
)

// LeadRepository is the pipeline's read/write surface on the externally
// owned leads collection. Reads cover the fields postbacks need; writes are
// limited to the gti_* correlation mirror and the history append.
type LeadRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	CountByPhoneVariants(ctx context.Context, variants []string) (int64, error)
	UpdateGTICorrelation(ctx context.Context, id, primaryPhone, callUUID string) error
	SetLastPostback(ctx context.Context, id string, at time.Time) error
	AppendHistory(ctx context.Context, entry *domain.LeadHistoryEntry) error
	GetHistory(ctx context.Context, leadID string) ([]domain.LeadHistoryEntry, error)
}

type GormLeadRepo struct {
	db *gorm.DB
}

func NewGormLeadRepo(db *gorm.DB) *GormLeadRepo {
	return &GormLeadRepo{db: db}
}

func (r *GormLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var model LeadModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return leadModelToDomain(&model), nil
}

func (r *GormLeadRepo) CountByPhoneVariants(ctx context.Context, variants []string) (int64, error) {
	if len(variants) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeadModel{}).
		Where("phone IN ?", variants).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormLeadRepo) UpdateGTICorrelation(ctx context.Context, id, primaryPhone, callUUID string) error {
	result := r.db.WithContext(ctx).
		Model(&LeadModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"gti_primary_phone": primaryPhone,
			"gti_call_uuid":     callUUID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormLeadRepo) SetLastPostback(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&LeadModel{}).
		Where("id = ?", id).
		Update("gti_last_postback", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormLeadRepo) AppendHistory(ctx context.Context, entry *domain.LeadHistoryEntry) error {
	model := historyModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if entry != nil {
		*entry = *historyModelToDomain(model)
	}
	return nil
}

func (r *GormLeadRepo) GetHistory(ctx context.Context, leadID string) ([]domain.LeadHistoryEntry, error) {
	var models []LeadHistoryModel
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeadHistoryEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *historyModelToDomain(&models[i]))
	}
	return entries, nil
}
