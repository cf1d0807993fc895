package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"tapbridge/internal/infrastructure/persistence/models"
)

// BridgeModels lists every persistence model covered by auto-migration.
func BridgeModels() []interface{} {
	return []interface{}{
		&models.DepositIntentModel{},
		&models.WithdrawalRequestModel{},
		&models.BalanceModel{},
	}
}

// AutoMigrate creates or updates the bridge tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(BridgeModels()...); err != nil {
		return fmt.Errorf("failed to migrate bridge tables: %w", err)
	}
	return nil
}
