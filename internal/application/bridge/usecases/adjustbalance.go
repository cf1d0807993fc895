package usecases

import (
	"context"
	"errors"

	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/domain/shared/amount"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

// AdjustBalanceUseCase applies off-chain game credits and debits. It backs
// the internal endpoints the game server calls when a player earns or
// spends in-game, so mutations go through the same ledger as the bridge.
type AdjustBalanceUseCase struct {
	ledgerRepo ledger.Repository
	logger     logger.Interface
}

func NewAdjustBalanceUseCase(ledgerRepo ledger.Repository, logger logger.Interface) *AdjustBalanceUseCase {
	return &AdjustBalanceUseCase{ledgerRepo: ledgerRepo, logger: logger}
}

type AdjustBalanceCommand struct {
	UserID    string
	AmountRaw uint64
}

type AdjustBalanceResult struct {
	UserID     string `json:"user_id"`
	Balance    string `json:"balance"`
	BalanceRaw uint64 `json:"balance_raw"`
}

func (uc *AdjustBalanceUseCase) Credit(ctx context.Context, cmd AdjustBalanceCommand) (*AdjustBalanceResult, error) {
	if err := validateAdjust(cmd); err != nil {
		return nil, err
	}
	if err := uc.ledgerRepo.Credit(ctx, cmd.UserID, cmd.AmountRaw); err != nil {
		return nil, err
	}
	return uc.result(ctx, cmd.UserID)
}

func (uc *AdjustBalanceUseCase) Debit(ctx context.Context, cmd AdjustBalanceCommand) (*AdjustBalanceResult, error) {
	if err := validateAdjust(cmd); err != nil {
		return nil, err
	}
	if err := uc.ledgerRepo.Debit(ctx, cmd.UserID, cmd.AmountRaw); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			return nil, apperrors.NewConflictError("insufficient balance")
		}
		return nil, err
	}
	return uc.result(ctx, cmd.UserID)
}

func validateAdjust(cmd AdjustBalanceCommand) error {
	if cmd.UserID == "" {
		return apperrors.NewValidationError("user_id is required")
	}
	if cmd.AmountRaw == 0 {
		return apperrors.NewValidationError("amount must be positive")
	}
	return nil
}

func (uc *AdjustBalanceUseCase) result(ctx context.Context, userID string) (*AdjustBalanceResult, error) {
	entry, err := uc.ledgerRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AdjustBalanceResult{
		UserID:     entry.UserID,
		Balance:    amount.Format(entry.BalanceRaw),
		BalanceRaw: entry.BalanceRaw,
	}, nil
}
