package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tapbridge/internal/application/bridge/chain"
	"tapbridge/internal/application/bridge/nonce"
	"tapbridge/internal/application/bridge/vault"
	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/domain/shared/amount"
	"tapbridge/internal/domain/withdrawal"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

// ProcessWithdrawalsUseCase drains the withdrawal queue: claim, lease a
// nonce, sign, broadcast, finalize. Requests are processed one at a time;
// with a single funding wallet the nonce sequence serializes broadcasts
// anyway, and serial claiming keeps the failure reasoning simple.
type ProcessWithdrawalsUseCase struct {
	withdrawalRepo   withdrawal.Repository
	ledgerRepo       ledger.Repository
	chainClient      chain.Client
	keySource        vault.KeySource
	nonceAllocator   nonce.Allocator
	txManager        TxRunner
	custodialAddress string
	executeMu        sync.Mutex // Prevents concurrent Execute calls
	logger           logger.Interface
}

func NewProcessWithdrawalsUseCase(
	withdrawalRepo withdrawal.Repository,
	ledgerRepo ledger.Repository,
	chainClient chain.Client,
	keySource vault.KeySource,
	nonceAllocator nonce.Allocator,
	txManager TxRunner,
	custodialAddress string,
	logger logger.Interface,
) *ProcessWithdrawalsUseCase {
	return &ProcessWithdrawalsUseCase{
		withdrawalRepo:   withdrawalRepo,
		ledgerRepo:       ledgerRepo,
		chainClient:      chainClient,
		keySource:        keySource,
		nonceAllocator:   nonceAllocator,
		txManager:        txManager,
		custodialAddress: custodialAddress,
		logger:           logger,
	}
}

// Execute drains the queue and returns how many requests were handled
// (sent or failed-with-compensation).
func (uc *ProcessWithdrawalsUseCase) Execute(ctx context.Context) (int, error) {
	uc.executeMu.Lock()
	defer uc.executeMu.Unlock()

	processed := 0
	for {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		default:
		}

		req, err := uc.withdrawalRepo.ClaimNext(ctx)
		if err != nil {
			return processed, fmt.Errorf("failed to claim withdrawal: %w", err)
		}
		if req == nil {
			return processed, nil
		}

		uc.processOne(ctx, req)
		processed++
	}
}

func (uc *ProcessWithdrawalsUseCase) processOne(ctx context.Context, req *withdrawal.Request) {
	txHash, leasedNonce, err := uc.signAndBroadcast(ctx, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrChainRejected) {
			// A definitive rejection can mean the counter drifted from
			// the chain. Reseeding from the pending nonce is harmless
			// for other rejection causes.
			if rerr := uc.nonceAllocator.Reset(ctx, uc.custodialAddress); rerr != nil {
				uc.logger.Warnw("failed to reset nonce counter after chain rejection",
					"address", uc.custodialAddress,
					"error", rerr,
				)
			}
		}
		uc.compensate(ctx, req, err)
		return
	}

	finalized, err := uc.withdrawalRepo.MarkSent(ctx, req.WithdrawalID(), txHash, leasedNonce)
	if err != nil || !finalized {
		// The transaction is on the chain but the row is stale. Never
		// compensate here: the funds moved. Surface for reconciliation.
		uc.logger.Errorw("broadcast succeeded but status update failed, manual reconciliation required",
			"withdrawal_id", req.WithdrawalID(),
			"tx_hash", txHash,
			"error", err,
		)
		return
	}

	uc.logger.Infow("withdrawal sent",
		"withdrawal_id", req.WithdrawalID(),
		"user_id", req.UserID(),
		"to_address", req.ToAddress(),
		"amount", amount.Format(req.AmountRaw()),
		"tx_hash", txHash,
		"nonce", leasedNonce,
	)
}

// signAndBroadcast decrypts the signing key, leases a nonce and broadcasts
// the transfer. The key stays in locals for the duration of the call. The
// nonce lease comes last so a key failure does not burn a counter value.
func (uc *ProcessWithdrawalsUseCase) signAndBroadcast(ctx context.Context, req *withdrawal.Request) (string, uint64, error) {
	key, err := uc.keySource.SigningKey()
	if err != nil {
		return "", 0, fmt.Errorf("signing key unavailable: %w", err)
	}

	leasedNonce, err := uc.nonceAllocator.Next(ctx, uc.custodialAddress)
	if err != nil {
		return "", 0, fmt.Errorf("nonce allocation failed: %w", err)
	}

	txHash, err := uc.chainClient.BroadcastTransfer(ctx, key, leasedNonce, req.ToAddress(), req.AmountRaw())
	if err != nil {
		return "", 0, fmt.Errorf("broadcast failed: %w", err)
	}

	return txHash, leasedNonce, nil
}

// compensate reverses the optimistic debit and finalizes the request as
// failed. The status-guarded MarkFailed and the refund share one
// transaction, so observing the failure twice cannot refund twice.
func (uc *ProcessWithdrawalsUseCase) compensate(ctx context.Context, req *withdrawal.Request, cause error) {
	var refunded bool
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		claimed, err := uc.withdrawalRepo.MarkFailed(txCtx, req.WithdrawalID(), cause.Error())
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}
		if err := uc.ledgerRepo.Credit(txCtx, req.UserID(), req.AmountRaw()); err != nil {
			return err
		}
		refunded = true
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to compensate withdrawal, ledger may be inconsistent",
			"withdrawal_id", req.WithdrawalID(),
			"user_id", req.UserID(),
			"cause", cause,
			"error", err,
		)
		return
	}

	if refunded {
		uc.logger.Warnw("withdrawal failed, balance restored",
			"withdrawal_id", req.WithdrawalID(),
			"user_id", req.UserID(),
			"amount", amount.Format(req.AmountRaw()),
			"error", cause,
		)
	}
}
