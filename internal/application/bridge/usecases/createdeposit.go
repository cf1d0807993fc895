package usecases

import (
	"context"
	"fmt"
	"time"

	"tapbridge/internal/domain/deposit"
	"tapbridge/internal/domain/shared/amount"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

// CreateDepositUseCase issues a deposit intent with a unique amount the
// user must send to the shared custodial address.
type CreateDepositUseCase struct {
	depositRepo    deposit.Repository
	depositAddress string
	depositTTL     time.Duration
	logger         logger.Interface
}

func NewCreateDepositUseCase(
	depositRepo deposit.Repository,
	depositAddress string,
	depositTTL time.Duration,
	logger logger.Interface,
) *CreateDepositUseCase {
	return &CreateDepositUseCase{
		depositRepo:    depositRepo,
		depositAddress: depositAddress,
		depositTTL:     depositTTL,
		logger:         logger,
	}
}

type CreateDepositCommand struct {
	UserID    string
	AmountRaw uint64
}

type CreateDepositResult struct {
	DepositID       string
	UniqueAmountRaw uint64
	UniqueAmount    string
	DepositAddress  string
	ExpiresAt       time.Time
}

func (uc *CreateDepositUseCase) Execute(ctx context.Context, cmd CreateDepositCommand) (*CreateDepositResult, error) {
	if cmd.UserID == "" {
		return nil, apperrors.NewValidationError("user ID is required")
	}
	if cmd.AmountRaw == 0 {
		return nil, apperrors.NewValidationError("amount must be positive")
	}

	// The unique amount is a function of (user, amount) alone, so a second
	// intent for the same pair would be unmatchable against the first.
	outstanding, err := uc.depositRepo.HasOutstanding(ctx, cmd.UserID, cmd.AmountRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to check outstanding intents: %w", err)
	}
	if outstanding {
		return nil, apperrors.ErrDepositOutstanding
	}

	intent, err := deposit.NewIntent(cmd.UserID, cmd.AmountRaw, uc.depositAddress, uc.depositTTL)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := uc.depositRepo.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to create deposit intent: %w", err)
	}

	uc.logger.Infow("issued deposit intent",
		"deposit_id", intent.DepositID(),
		"user_id", cmd.UserID,
		"amount_raw", cmd.AmountRaw,
		"unique_amount_raw", intent.UniqueAmountRaw(),
		"expires_at", intent.ExpiresAt(),
	)

	return &CreateDepositResult{
		DepositID:       intent.DepositID(),
		UniqueAmountRaw: intent.UniqueAmountRaw(),
		UniqueAmount:    amount.Format(intent.UniqueAmountRaw()),
		DepositAddress:  intent.DepositAddress(),
		ExpiresAt:       intent.ExpiresAt(),
	}, nil
}
