package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tapbridge/internal/domain/deposit"
	vo "tapbridge/internal/domain/deposit/valueobjects"
	"tapbridge/internal/infrastructure/persistence/mappers"
	"tapbridge/internal/infrastructure/persistence/models"
	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/db"
	apperrors "tapbridge/internal/shared/errors"
)

type DepositRepository struct {
	db *gorm.DB
}

var _ deposit.Repository = (*DepositRepository)(nil)

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, intent *deposit.Intent) error {
	model := mappers.DepositToModel(intent)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		// The active-key unique index catches the race two concurrent
		// identical requests can win past the HasOutstanding check.
		if apperrors.IsDuplicateError(err) {
			return apperrors.ErrDepositOutstanding
		}
		return fmt.Errorf("failed to create deposit intent: %w", err)
	}

	// Write back the auto-generated ID to the domain object
	intent.SetDBID(model.ID)

	return nil
}

func (r *DepositRepository) Update(ctx context.Context, intent *deposit.Intent) error {
	model := mappers.DepositToModel(intent)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.DepositIntentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"active_key":    model.ActiveKey,
			"confirmations": model.Confirmations,
			"tx_hash":       model.TxHash,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update deposit intent: %w", result.Error)
	}

	return nil
}

func (r *DepositRepository) GetByDepositID(ctx context.Context, depositID string) (*deposit.Intent, error) {
	var model models.DepositIntentModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("deposit_id = ?", depositID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deposit intent: %w", err)
	}

	return mappers.DepositToDomain(&model)
}

func (r *DepositRepository) HasOutstanding(ctx context.Context, userID string, amountRaw uint64) (bool, error) {
	var count int64

	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.DepositIntentModel{}).
		Where("user_id = ? AND amount_raw = ? AND status IN ?",
			userID, amountRaw,
			[]string{string(vo.DepositStatusWaiting), string(vo.DepositStatusPending)}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count outstanding intents: %w", err)
	}

	return count > 0, nil
}

func (r *DepositRepository) ListWaiting(ctx context.Context) ([]*deposit.Intent, error) {
	return r.listByStatus(ctx, vo.DepositStatusWaiting)
}

func (r *DepositRepository) ListPending(ctx context.Context) ([]*deposit.Intent, error) {
	return r.listByStatus(ctx, vo.DepositStatusPending)
}

func (r *DepositRepository) listByStatus(ctx context.Context, status vo.DepositStatus) ([]*deposit.Intent, error) {
	var rows []models.DepositIntentModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", string(status)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s intents: %w", status, err)
	}

	intents := make([]*deposit.Intent, 0, len(rows))
	for i := range rows {
		intent, err := mappers.DepositToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, nil
}

// TransitionToConfirmed is the status-guarded confirm. The WHERE clause
// pins the prior status, so of N concurrent pollers exactly one observes
// RowsAffected == 1 and performs the ledger credit.
func (r *DepositRepository) TransitionToConfirmed(ctx context.Context, depositID string) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.DepositIntentModel{}).
		Where("deposit_id = ? AND status = ?", depositID, string(vo.DepositStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(vo.DepositStatusConfirmed),
			"active_key": nil,
			"updated_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to confirm deposit intent: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// ExpireOverdue moves waiting intents past their deadline to expired. The
// status guard means an intent matched concurrently stays matched.
func (r *DepositRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.DepositIntentModel{}).
		Where("status = ? AND expires_at < ?", string(vo.DepositStatusWaiting), now).
		Updates(map[string]interface{}{
			"status":     string(vo.DepositStatusExpired),
			"active_key": nil,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire deposit intents: %w", result.Error)
	}

	return result.RowsAffected, nil
}
