package usecases

import (
	"context"
	"time"

	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/domain/shared/amount"
	apperrors "tapbridge/internal/shared/errors"
)

type GetBalanceUseCase struct {
	ledgerRepo ledger.Repository
}

func NewGetBalanceUseCase(ledgerRepo ledger.Repository) *GetBalanceUseCase {
	return &GetBalanceUseCase{ledgerRepo: ledgerRepo}
}

type GetBalanceCommand struct {
	UserID string
}

type GetBalanceResult struct {
	UserID     string    `json:"user_id"`
	Balance    string    `json:"balance"`
	BalanceRaw uint64    `json:"balance_raw"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, cmd GetBalanceCommand) (*GetBalanceResult, error) {
	if cmd.UserID == "" {
		return nil, apperrors.NewValidationError("user_id is required")
	}

	entry, err := uc.ledgerRepo.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	return &GetBalanceResult{
		UserID:     entry.UserID,
		Balance:    amount.Format(entry.BalanceRaw),
		BalanceRaw: entry.BalanceRaw,
		UpdatedAt:  entry.UpdatedAt,
	}, nil
}
