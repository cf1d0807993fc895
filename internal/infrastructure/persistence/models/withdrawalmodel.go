package models

import (
	"time"

	"gorm.io/gorm"
)

// WithdrawalRequestModel is the persistence model for withdrawal requests.
type WithdrawalRequestModel struct {
	ID           uint    `gorm:"primarykey"`
	WithdrawalID string  `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: wd_xxx"`
	UserID       string  `gorm:"not null;size:64;index:idx_withdrawal_user"`
	ToAddress    string  `gorm:"not null;size:42"`
	AmountRaw    uint64  `gorm:"not null"`
	Status       string  `gorm:"not null;size:20;index:idx_withdrawal_status"`
	TxHash       *string `gorm:"size:66"`
	LastError    *string `gorm:"size:500"`
	Nonce        *uint64
	RequestedAt  time.Time `gorm:"not null"`
	ClaimedAt    *time.Time
	ProcessedAt  *time.Time
	Version      int `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (WithdrawalRequestModel) TableName() string {
	return "withdrawal_requests"
}

// BeforeCreate hook for GORM
func (m *WithdrawalRequestModel) BeforeCreate(tx *gorm.DB) error {
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
