package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"gorm.io/gorm"
)

func createLeadPostbackHistoryTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_lead_postback_history",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.LeadHistoryModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_lead_history_lead_id ON lead_postback_history (lead_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.LeadHistoryModel{})
		},
	}
}
