package repository

import (
	"context"

	"github.com/reddlead/gti-pipeline/internal/domain"
	"gorm.io/gorm"
)

// IntegrationLogRepository mirrors export/receive API traffic, gate
// rejections included, for partner diagnostics.
type IntegrationLogRepository interface {
	Create(ctx context.Context, log *domain.IntegrationLog) error
}

type GormIntegrationLogRepo struct {
	db *gorm.DB
}

func NewGormIntegrationLogRepo(db *gorm.DB) *GormIntegrationLogRepo {
	return &GormIntegrationLogRepo{db: db}
}

func (r *GormIntegrationLogRepo) Create(ctx context.Context, log *domain.IntegrationLog) error {
	model := integrationLogModelFromDomain(log)
	return r.db.WithContext(ctx).Create(model).Error
}
