package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tapbridge/internal/application/bridge/chain"
	"tapbridge/internal/domain/deposit"
	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/domain/shared/amount"
	"tapbridge/internal/shared/logger"
)

const (
	// Clock-skew buffer when comparing block timestamps against intent
	// creation time.
	matchTimeBuffer = 30 * time.Second
)

// ConfirmDepositsUseCase is the deposit poller: it matches inbound
// transfers against waiting intents, tracks confirmations on pending ones
// and credits the ledger exactly once when the threshold is reached.
type ConfirmDepositsUseCase struct {
	depositRepo           deposit.Repository
	ledgerRepo            ledger.Repository
	chainClient           chain.Client
	txManager             TxRunner
	depositAddress        string
	requiredConfirmations int
	lookbackBlocks        uint64
	executeMu             sync.Mutex // Prevents concurrent Execute calls to avoid double crediting
	logger                logger.Interface
}

func NewConfirmDepositsUseCase(
	depositRepo deposit.Repository,
	ledgerRepo ledger.Repository,
	chainClient chain.Client,
	txManager TxRunner,
	depositAddress string,
	requiredConfirmations int,
	lookbackBlocks uint64,
	logger logger.Interface,
) *ConfirmDepositsUseCase {
	if requiredConfirmations <= 0 {
		requiredConfirmations = 6
	}
	return &ConfirmDepositsUseCase{
		depositRepo:           depositRepo,
		ledgerRepo:            ledgerRepo,
		chainClient:           chainClient,
		txManager:             txManager,
		depositAddress:        depositAddress,
		requiredConfirmations: requiredConfirmations,
		lookbackBlocks:        lookbackBlocks,
		logger:                logger,
	}
}

// ConfirmDepositResult describes what happened to one intent during a pass.
type ConfirmDepositResult struct {
	DepositID     string
	Matched       bool
	Confirmed     bool
	TxHash        string
	Confirmations int
}

// Execute runs one poll pass over waiting and pending intents.
func (uc *ConfirmDepositsUseCase) Execute(ctx context.Context) ([]ConfirmDepositResult, error) {
	uc.executeMu.Lock()
	defer uc.executeMu.Unlock()

	var results []ConfirmDepositResult

	matched, err := uc.matchWaiting(ctx)
	if err != nil {
		return nil, err
	}
	results = append(results, matched...)

	confirmed, err := uc.advancePending(ctx)
	if err != nil {
		return nil, err
	}
	results = append(results, confirmed...)

	return results, nil
}

// matchWaiting scans recent inbound transfers and pairs them with waiting
// intents by unique amount.
func (uc *ConfirmDepositsUseCase) matchWaiting(ctx context.Context) ([]ConfirmDepositResult, error) {
	waiting, err := uc.depositRepo.ListWaiting(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting intents: %w", err)
	}
	if len(waiting) == 0 {
		return nil, nil
	}

	transfers, err := uc.chainClient.RecentTransfers(ctx, uc.depositAddress, uc.lookbackBlocks)
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent transfers: %w", err)
	}
	if len(transfers) == 0 {
		return nil, nil
	}

	var results []ConfirmDepositResult
	for _, intent := range waiting {
		// Expired intents are handled by the expiry sweep and are never
		// matched, even when the transfer already arrived.
		if intent.IsExpired() {
			continue
		}

		tr := matchTransfer(transfers, intent)
		if tr == nil {
			continue
		}

		confirmations, err := uc.chainClient.GetConfirmations(ctx, tr.TxHash)
		if err != nil {
			uc.logger.Warnw("failed to get confirmations for matched transfer",
				"deposit_id", intent.DepositID(),
				"tx_hash", tr.TxHash,
				"error", err,
			)
			confirmations = 0
		}

		if err := intent.MarkPending(tr.TxHash, confirmations); err != nil {
			uc.logger.Warnw("failed to mark intent pending",
				"deposit_id", intent.DepositID(),
				"error", err,
			)
			continue
		}
		if err := uc.depositRepo.Update(ctx, intent); err != nil {
			uc.logger.Errorw("failed to persist pending intent",
				"deposit_id", intent.DepositID(),
				"error", err,
			)
			continue
		}

		uc.logger.Infow("matched inbound transfer",
			"deposit_id", intent.DepositID(),
			"user_id", intent.UserID(),
			"tx_hash", tr.TxHash,
			"amount", amount.Format(tr.AmountRaw),
			"confirmations", confirmations,
		)

		result := ConfirmDepositResult{
			DepositID:     intent.DepositID(),
			Matched:       true,
			TxHash:        tr.TxHash,
			Confirmations: confirmations,
		}

		if confirmations >= uc.requiredConfirmations {
			if uc.credit(ctx, intent) {
				result.Confirmed = true
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// matchTransfer finds a transfer whose value equals the intent's unique
// amount and which arrived after the intent was created (with a clock-skew
// buffer).
func matchTransfer(transfers []chain.Transfer, intent *deposit.Intent) *chain.Transfer {
	minTime := intent.CreatedAt().Add(-matchTimeBuffer)
	for idx := range transfers {
		tr := &transfers[idx]
		if tr.AmountRaw != intent.UniqueAmountRaw() {
			continue
		}
		if !tr.Timestamp.IsZero() && tr.Timestamp.Before(minTime) {
			continue
		}
		return tr
	}
	return nil
}

// advancePending refreshes confirmation counts and finalizes intents that
// reached the threshold.
func (uc *ConfirmDepositsUseCase) advancePending(ctx context.Context) ([]ConfirmDepositResult, error) {
	pending, err := uc.depositRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending intents: %w", err)
	}

	var results []ConfirmDepositResult
	for _, intent := range pending {
		txHash := intent.TxHash()
		if txHash == nil {
			continue
		}

		confirmations, err := uc.chainClient.GetConfirmations(ctx, *txHash)
		if err != nil {
			uc.logger.Warnw("failed to refresh confirmations",
				"deposit_id", intent.DepositID(),
				"tx_hash", *txHash,
				"error", err,
			)
			continue
		}

		intent.SetConfirmations(confirmations)
		if err := uc.depositRepo.Update(ctx, intent); err != nil {
			uc.logger.Errorw("failed to persist confirmation count",
				"deposit_id", intent.DepositID(),
				"error", err,
			)
			continue
		}

		result := ConfirmDepositResult{
			DepositID:     intent.DepositID(),
			TxHash:        *txHash,
			Confirmations: confirmations,
		}

		if confirmations >= uc.requiredConfirmations {
			if uc.credit(ctx, intent) {
				result.Confirmed = true
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// credit performs the exactly-once confirmed transition plus ledger credit.
// The status-guarded update and the credit share one transaction, so a
// duplicate confirmation event cannot credit twice.
func (uc *ConfirmDepositsUseCase) credit(ctx context.Context, intent *deposit.Intent) bool {
	var credited bool
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		claimed, err := uc.depositRepo.TransitionToConfirmed(txCtx, intent.DepositID())
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}
		// Credit the nominal amount, not the unique amount: the offset is a
		// matching artifact, not user funds.
		if err := uc.ledgerRepo.Credit(txCtx, intent.UserID(), intent.AmountRaw()); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to confirm deposit",
			"deposit_id", intent.DepositID(),
			"user_id", intent.UserID(),
			"error", err,
		)
		return false
	}

	if credited {
		uc.logger.Infow("deposit confirmed",
			"deposit_id", intent.DepositID(),
			"user_id", intent.UserID(),
			"amount", amount.Format(intent.AmountRaw()),
		)
	}
	return credited
}
