package usecases

import (
	"context"
	"fmt"

	"tapbridge/internal/domain/deposit"
	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/logger"
)

// ExpireDepositsUseCase sweeps waiting intents past their TTL into the
// expired state. Expiry is a normal terminal state, not a fault.
type ExpireDepositsUseCase struct {
	depositRepo deposit.Repository
	logger      logger.Interface
}

func NewExpireDepositsUseCase(depositRepo deposit.Repository, logger logger.Interface) *ExpireDepositsUseCase {
	return &ExpireDepositsUseCase{
		depositRepo: depositRepo,
		logger:      logger,
	}
}

// Execute expires overdue intents and returns how many were transitioned.
func (uc *ExpireDepositsUseCase) Execute(ctx context.Context) (int, error) {
	count, err := uc.depositRepo.ExpireOverdue(ctx, biztime.NowUTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue intents: %w", err)
	}

	if count > 0 {
		uc.logger.Infow("expired deposit intents", "count", count)
	}

	return int(count), nil
}
