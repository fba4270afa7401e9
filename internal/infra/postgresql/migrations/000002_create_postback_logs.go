package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"gorm.io/gorm"
)

func createPostbackLogsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_postback_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.PostbackLogModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_postback_logs_lead_id ON postback_logs (lead_id) WHERE lead_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_postback_logs_call_uuid ON postback_logs (call_uuid)`,
				`CREATE INDEX IF NOT EXISTS idx_postback_logs_sent_at ON postback_logs (sent_at)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PostbackLogModel{})
		},
	}
}
