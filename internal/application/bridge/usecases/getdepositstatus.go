package usecases

import (
	"context"
	"time"

	"tapbridge/internal/domain/deposit"
	"tapbridge/internal/domain/shared/amount"
	apperrors "tapbridge/internal/shared/errors"
)

type GetDepositStatusUseCase struct {
	depositRepo deposit.Repository
}

func NewGetDepositStatusUseCase(depositRepo deposit.Repository) *GetDepositStatusUseCase {
	return &GetDepositStatusUseCase{depositRepo: depositRepo}
}

type GetDepositStatusCommand struct {
	DepositID string
}

type GetDepositStatusResult struct {
	DepositID       string     `json:"deposit_id"`
	UserID          string     `json:"user_id"`
	Status          string     `json:"status"`
	Amount          string     `json:"amount"`
	UniqueAmount    string     `json:"unique_amount"`
	UniqueAmountRaw uint64     `json:"unique_amount_raw"`
	DepositAddress  string     `json:"deposit_address"`
	Confirmations   int        `json:"confirmations"`
	TxHash          *string    `json:"tx_hash,omitempty"`
	ExpiresAt       time.Time  `json:"expires_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (uc *GetDepositStatusUseCase) Execute(ctx context.Context, cmd GetDepositStatusCommand) (*GetDepositStatusResult, error) {
	if cmd.DepositID == "" {
		return nil, apperrors.NewValidationError("deposit_id is required")
	}

	intent, err := uc.depositRepo.GetByDepositID(ctx, cmd.DepositID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, apperrors.NewNotFoundError("deposit not found")
	}

	return &GetDepositStatusResult{
		DepositID:       intent.DepositID(),
		UserID:          intent.UserID(),
		Status:          string(intent.Status()),
		Amount:          amount.Format(intent.AmountRaw()),
		UniqueAmount:    amount.Format(intent.UniqueAmountRaw()),
		UniqueAmountRaw: intent.UniqueAmountRaw(),
		DepositAddress:  intent.DepositAddress(),
		Confirmations:   intent.Confirmations(),
		TxHash:          intent.TxHash(),
		ExpiresAt:       intent.ExpiresAt(),
		CreatedAt:       intent.CreatedAt(),
	}, nil
}
