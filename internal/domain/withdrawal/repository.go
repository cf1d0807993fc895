package withdrawal

import (
	"context"
	"time"
)

// Repository persists withdrawal requests.
//
// ClaimNext, MarkSent and MarkFailed are status-guarded: a claim only
// succeeds against a queued row and each terminal transition only against a
// processing row. That guards against two workers processing the same
// request and against double compensation.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	Update(ctx context.Context, req *Request) error
	GetByWithdrawalID(ctx context.Context, withdrawalID string) (*Request, error)

	// ClaimNext atomically claims the oldest queued request by moving it
	// to processing. Returns nil when the queue is empty.
	ClaimNext(ctx context.Context) (*Request, error)

	// MarkSent transitions processing -> sent with the broadcast tx hash.
	MarkSent(ctx context.Context, withdrawalID, txHash string, nonce uint64) (bool, error)

	// MarkFailed transitions processing -> failed with the error message.
	// Returns false if the request was not in processing state, in which
	// case the caller must not compensate again.
	MarkFailed(ctx context.Context, withdrawalID, reason string) (bool, error)

	// ReclaimStale re-queues processing requests with no forward progress
	// since before the given threshold and returns how many were re-queued.
	ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, error)
}
