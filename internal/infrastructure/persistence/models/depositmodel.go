package models

import (
	"time"

	"gorm.io/gorm"
)

// DepositIntentModel is the persistence model for deposit intents.
// This is the anti-corruption layer between domain and database.
type DepositIntentModel struct {
	ID              uint      `gorm:"primarykey"`
	DepositID       string    `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: dep_xxx"`
	UserID          string    `gorm:"not null;size:64;index:idx_user_amount,priority:1"`
	AmountRaw       uint64    `gorm:"not null;index:idx_user_amount,priority:2"`
	UniqueAmountRaw uint64    `gorm:"not null;index:idx_unique_amount"`
	DepositAddress  string    `gorm:"not null;size:42"`
	Status          string    `gorm:"not null;size:20;index:idx_deposit_status"`
	// ActiveKey is "user_id:amount_raw" while the intent is waiting or
	// pending and NULL once terminal. The unique index makes the
	// one-outstanding-intent-per-pair rule hold under concurrent inserts.
	ActiveKey *string `gorm:"uniqueIndex:idx_active_pair;size:96"`
	Confirmations   int       `gorm:"not null;default:0"`
	TxHash          *string   `gorm:"size:66"`
	ExpiresAt       time.Time `gorm:"not null;index:idx_expires_at"`
	Version         int       `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (DepositIntentModel) TableName() string {
	return "deposit_intents"
}

// BeforeCreate hook for GORM
func (m *DepositIntentModel) BeforeCreate(tx *gorm.DB) error {
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
