package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/kwick/backend/internal/models"
)

// The uniqueIndex on user_id is what concurrent resolve-or-create relies on.
func createKYCTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_kyc_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.KYCVerification{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("kyc_verifications")
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createKYCTableMigration())
}
