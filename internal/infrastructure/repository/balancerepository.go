package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/infrastructure/persistence/models"
	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/db"
	apperrors "tapbridge/internal/shared/errors"
)

// BalanceRepository implements the ledger contract with single-statement
// atomic balance mutations. There is deliberately no read-modify-write
// path: credits are upserts with an additive update and debits carry the
// sufficient-balance predicate in the WHERE clause.
type BalanceRepository struct {
	db *gorm.DB
}

var _ ledger.Repository = (*BalanceRepository)(nil)

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Get(ctx context.Context, userID string) (*ledger.Entry, error) {
	var model models.BalanceModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ledger.Entry{UserID: userID, BalanceRaw: 0, UpdatedAt: biztime.NowUTC()}, nil
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &ledger.Entry{
		UserID:     model.UserID,
		BalanceRaw: model.BalanceRaw,
		UpdatedAt:  model.UpdatedAt,
	}, nil
}

func (r *BalanceRepository) Credit(ctx context.Context, userID string, amountRaw uint64) error {
	now := biztime.NowUTC()

	err := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance_raw": gorm.Expr("balance_raw + ?", amountRaw),
				"updated_at":  now,
			}),
		}).
		Create(&models.BalanceModel{
			UserID:     userID,
			BalanceRaw: amountRaw,
			CreatedAt:  now,
			UpdatedAt:  now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	return nil
}

func (r *BalanceRepository) Debit(ctx context.Context, userID string, amountRaw uint64) error {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.BalanceModel{}).
		Where("user_id = ? AND balance_raw >= ?", userID, amountRaw).
		Updates(map[string]interface{}{
			"balance_raw": gorm.Expr("balance_raw - ?", amountRaw),
			"updated_at":  biztime.NowUTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to debit balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInsufficientFunds
	}

	return nil
}
