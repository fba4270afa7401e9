package repository

import (
	"context"

	"github.com/reddlead/gti-pipeline/internal/domain"
	"gorm.io/gorm"
)

// PostbackLogRepository persists the append-only delivery audit trail.
// Rows are never updated or deleted by normal operation.
type PostbackLogRepository interface {
	Create(ctx context.Context, log *domain.PostbackLog) error
	GetByLeadID(ctx context.Context, leadID string) ([]domain.PostbackLog, error)
	GetByCallUUID(ctx context.Context, callUUID string) ([]domain.PostbackLog, error)
}

type GormPostbackLogRepo struct {
	db *gorm.DB
}

func NewGormPostbackLogRepo(db *gorm.DB) *GormPostbackLogRepo {
	return &GormPostbackLogRepo{db: db}
}

func (r *GormPostbackLogRepo) Create(ctx context.Context, log *domain.PostbackLog) error {
	model := postbackLogModelFromDomain(log)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if log != nil {
		*log = *postbackLogModelToDomain(model)
	}
	return nil
}

func (r *GormPostbackLogRepo) GetByLeadID(ctx context.Context, leadID string) ([]domain.PostbackLog, error) {
	var models []PostbackLogModel
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("sent_at ASC, attempt ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return postbackLogModelsToDomain(models), nil
}

func (r *GormPostbackLogRepo) GetByCallUUID(ctx context.Context, callUUID string) ([]domain.PostbackLog, error) {
	var models []PostbackLogModel
	err := r.db.WithContext(ctx).
		Where("call_uuid = ?", callUUID).
		Order("sent_at ASC, attempt ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return postbackLogModelsToDomain(models), nil
}

func postbackLogModelsToDomain(models []PostbackLogModel) []domain.PostbackLog {
	logs := make([]domain.PostbackLog, 0, len(models))
	for i := range models {
		logs = append(logs, *postbackLogModelToDomain(&models[i]))
	}
	return logs
}
