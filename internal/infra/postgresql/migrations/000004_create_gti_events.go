package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"gorm.io/gorm"
)

func createGTIEventsTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_gti_events",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.GTIEventModel{}); err != nil {
				return err
			}
			if err := tx.AutoMigrate(&repository.GTIWebhookConfirmationModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_gti_events_org_timestamp ON gti_events (organization, event_timestamp)`,
				`CREATE INDEX IF NOT EXISTS idx_gti_confirmations_key ON gti_webhook_confirmations (idempotency_key)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Migrator().DropTable(&repository.GTIWebhookConfirmationModel{}); err != nil {
				return err
			}
			return tx.Migrator().DropTable(&repository.GTIEventModel{})
		},
	}
}
