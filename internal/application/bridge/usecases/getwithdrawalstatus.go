package usecases

import (
	"context"
	"time"

	"tapbridge/internal/domain/shared/amount"
	"tapbridge/internal/domain/withdrawal"
	apperrors "tapbridge/internal/shared/errors"
)

type GetWithdrawalStatusUseCase struct {
	withdrawalRepo withdrawal.Repository
}

func NewGetWithdrawalStatusUseCase(withdrawalRepo withdrawal.Repository) *GetWithdrawalStatusUseCase {
	return &GetWithdrawalStatusUseCase{withdrawalRepo: withdrawalRepo}
}

type GetWithdrawalStatusCommand struct {
	WithdrawalID string
}

type GetWithdrawalStatusResult struct {
	WithdrawalID string     `json:"withdrawal_id"`
	UserID       string     `json:"user_id"`
	ToAddress    string     `json:"to_address"`
	Status       string     `json:"status"`
	Amount       string     `json:"amount"`
	TxHash       *string    `json:"tx_hash,omitempty"`
	LastError    *string    `json:"last_error,omitempty"`
	RequestedAt  time.Time  `json:"requested_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

func (uc *GetWithdrawalStatusUseCase) Execute(ctx context.Context, cmd GetWithdrawalStatusCommand) (*GetWithdrawalStatusResult, error) {
	if cmd.WithdrawalID == "" {
		return nil, apperrors.NewValidationError("withdrawal_id is required")
	}

	req, err := uc.withdrawalRepo.GetByWithdrawalID(ctx, cmd.WithdrawalID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.NewNotFoundError("withdrawal not found")
	}

	return &GetWithdrawalStatusResult{
		WithdrawalID: req.WithdrawalID(),
		UserID:       req.UserID(),
		ToAddress:    req.ToAddress(),
		Status:       string(req.Status()),
		Amount:       amount.Format(req.AmountRaw()),
		TxHash:       req.TxHash(),
		LastError:    req.LastError(),
		RequestedAt:  req.RequestedAt(),
		ProcessedAt:  req.ProcessedAt(),
	}, nil
}
