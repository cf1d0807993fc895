package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tapbridge/internal/domain/withdrawal"
	vo "tapbridge/internal/domain/withdrawal/valueobjects"
	"tapbridge/internal/infrastructure/persistence/mappers"
	"tapbridge/internal/infrastructure/persistence/models"
	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/db"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

var _ withdrawal.Repository = (*WithdrawalRepository)(nil)

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, req *withdrawal.Request) error {
	model := mappers.WithdrawalToModel(req)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	// Write back the auto-generated ID to the domain object
	req.SetDBID(model.ID)

	return nil
}

func (r *WithdrawalRepository) Update(ctx context.Context, req *withdrawal.Request) error {
	model := mappers.WithdrawalToModel(req)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WithdrawalRequestModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"tx_hash":      model.TxHash,
			"last_error":   model.LastError,
			"nonce":        model.Nonce,
			"claimed_at":   model.ClaimedAt,
			"processed_at": model.ProcessedAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update withdrawal request: %w", result.Error)
	}

	return nil
}

func (r *WithdrawalRepository) GetByWithdrawalID(ctx context.Context, withdrawalID string) (*withdrawal.Request, error) {
	var model models.WithdrawalRequestModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("withdrawal_id = ?", withdrawalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}

	return mappers.WithdrawalToDomain(&model)
}

// ClaimNext claims the oldest queued request by locking its row and moving
// it to processing inside one short transaction. Competing workers block on
// the row lock and then skip it once the status no longer matches.
func (r *WithdrawalRepository) ClaimNext(ctx context.Context) (*withdrawal.Request, error) {
	var claimed *withdrawal.Request

	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var model models.WithdrawalRequestModel

		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", string(vo.WithdrawalStatusQueued)).
			Order("id ASC").
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to select queued request: %w", err)
		}

		now := biztime.NowUTC()
		result := tx.Model(&models.WithdrawalRequestModel{}).
			Where("id = ? AND status = ?", model.ID, string(vo.WithdrawalStatusQueued)).
			Updates(map[string]interface{}{
				"status":     string(vo.WithdrawalStatusProcessing),
				"claimed_at": now,
				"version":    model.Version + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to claim request: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return nil
		}

		model.Status = string(vo.WithdrawalStatusProcessing)
		model.ClaimedAt = &now
		model.Version++
		model.UpdatedAt = now

		claimed, err = mappers.WithdrawalToDomain(&model)
		return err
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

// MarkSent is the status-guarded finalize for a successful broadcast.
func (r *WithdrawalRepository) MarkSent(ctx context.Context, withdrawalID, txHash string, nonce uint64) (bool, error) {
	now := biztime.NowUTC()

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WithdrawalRequestModel{}).
		Where("withdrawal_id = ? AND status = ?", withdrawalID, string(vo.WithdrawalStatusProcessing)).
		Updates(map[string]interface{}{
			"status":       string(vo.WithdrawalStatusSent),
			"tx_hash":      txHash,
			"nonce":        nonce,
			"processed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark withdrawal sent: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// MarkFailed is the status-guarded finalize for a failed attempt. The
// caller performs the compensating credit in the same transaction, keyed on
// the returned bool, so a request can never be refunded twice.
func (r *WithdrawalRepository) MarkFailed(ctx context.Context, withdrawalID, reason string) (bool, error) {
	if len(reason) > 500 {
		reason = reason[:500]
	}
	now := biztime.NowUTC()

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WithdrawalRequestModel{}).
		Where("withdrawal_id = ? AND status = ?", withdrawalID, string(vo.WithdrawalStatusProcessing)).
		Updates(map[string]interface{}{
			"status":       string(vo.WithdrawalStatusFailed),
			"last_error":   reason,
			"processed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark withdrawal failed: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// ReclaimStale re-queues processing rows claimed before the cutoff.
func (r *WithdrawalRepository) ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WithdrawalRequestModel{}).
		Where("status = ? AND claimed_at < ?", string(vo.WithdrawalStatusProcessing), claimedBefore).
		Updates(map[string]interface{}{
			"status":     string(vo.WithdrawalStatusQueued),
			"claimed_at": nil,
			"updated_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reclaim stale withdrawals: %w", result.Error)
	}

	return result.RowsAffected, nil
}
