package usecases

import (
	"context"
	"fmt"

	"tapbridge/internal/application/bridge/chain"
	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/domain/shared/amount"
	"tapbridge/internal/domain/withdrawal"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

// CreateWithdrawalUseCase validates and enqueues a withdrawal request.
// The ledger debit and the queued insert share one transaction: either the
// user is debited and a request exists, or neither happened.
type CreateWithdrawalUseCase struct {
	withdrawalRepo withdrawal.Repository
	ledgerRepo     ledger.Repository
	txManager      TxRunner
	logger         logger.Interface
}

func NewCreateWithdrawalUseCase(
	withdrawalRepo withdrawal.Repository,
	ledgerRepo ledger.Repository,
	txManager TxRunner,
	logger logger.Interface,
) *CreateWithdrawalUseCase {
	return &CreateWithdrawalUseCase{
		withdrawalRepo: withdrawalRepo,
		ledgerRepo:     ledgerRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

type CreateWithdrawalCommand struct {
	UserID    string
	ToAddress string
	AmountRaw uint64
}

type CreateWithdrawalResult struct {
	WithdrawalID string
	Status       string
}

func (uc *CreateWithdrawalUseCase) Execute(ctx context.Context, cmd CreateWithdrawalCommand) (*CreateWithdrawalResult, error) {
	if cmd.UserID == "" {
		return nil, apperrors.NewValidationError("user ID is required")
	}
	if cmd.AmountRaw == 0 {
		return nil, apperrors.NewValidationError("amount must be positive")
	}
	if !chain.IsValidAddress(cmd.ToAddress) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidAddress, cmd.ToAddress)
	}

	req, err := withdrawal.NewRequest(cmd.UserID, cmd.ToAddress, cmd.AmountRaw)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Debit first: a failed debit aborts the transaction and nothing
		// is enqueued.
		if err := uc.ledgerRepo.Debit(txCtx, cmd.UserID, cmd.AmountRaw); err != nil {
			return err
		}
		return uc.withdrawalRepo.Create(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("enqueued withdrawal",
		"withdrawal_id", req.WithdrawalID(),
		"user_id", cmd.UserID,
		"to_address", cmd.ToAddress,
		"amount", amount.Format(cmd.AmountRaw),
	)

	return &CreateWithdrawalResult{
		WithdrawalID: req.WithdrawalID(),
		Status:       req.Status().String(),
	}, nil
}
