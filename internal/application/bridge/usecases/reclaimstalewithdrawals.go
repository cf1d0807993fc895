package usecases

import (
	"context"
	"fmt"
	"time"

	"tapbridge/internal/domain/withdrawal"
	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/logger"
)

// ReclaimStaleWithdrawalsUseCase re-queues withdrawals whose worker claimed
// them but never finalized (crash between claim and broadcast). A request
// that was actually broadcast is finalized by the same worker run, so
// anything still processing past the threshold never made it on chain.
type ReclaimStaleWithdrawalsUseCase struct {
	withdrawalRepo withdrawal.Repository
	staleAfter     time.Duration
	logger         logger.Interface
}

func NewReclaimStaleWithdrawalsUseCase(
	withdrawalRepo withdrawal.Repository,
	staleAfter time.Duration,
	logger logger.Interface,
) *ReclaimStaleWithdrawalsUseCase {
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &ReclaimStaleWithdrawalsUseCase{
		withdrawalRepo: withdrawalRepo,
		staleAfter:     staleAfter,
		logger:         logger,
	}
}

func (uc *ReclaimStaleWithdrawalsUseCase) Execute(ctx context.Context) (int, error) {
	cutoff := biztime.NowUTC().Add(-uc.staleAfter)
	reclaimed, err := uc.withdrawalRepo.ReclaimStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale withdrawals: %w", err)
	}
	if reclaimed > 0 {
		uc.logger.Warnw("re-queued stale withdrawals", "count", reclaimed, "claimed_before", cutoff)
	}
	return int(reclaimed), nil
}
