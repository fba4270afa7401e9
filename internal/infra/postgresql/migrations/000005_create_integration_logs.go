package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"gorm.io/gorm"
)

func createIntegrationLogsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_integration_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.IntegrationLogModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_integration_logs_created_at ON integration_logs (created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.IntegrationLogModel{})
		},
	}
}
