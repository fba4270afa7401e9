package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"gorm.io/gorm"
)

func createLeadsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_leads",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.LeadModel{}); err != nil {
				return err
			}
			// Variant matching runs an IN query against stored phones.
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_leads_phone ON leads (phone)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.LeadModel{})
		},
	}
}
