package models

import "time"

// BalanceModel is the persistence model for ledger balances. One row per
// user; the balance column is only ever touched through atomic
// increment/decrement expressions.
type BalanceModel struct {
	ID         uint   `gorm:"primarykey"`
	UserID     string `gorm:"uniqueIndex;not null;size:64"`
	BalanceRaw uint64 `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (BalanceModel) TableName() string {
	return "balances"
}
