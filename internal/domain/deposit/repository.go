package deposit

import (
	"context"
	"time"
)

// Repository persists deposit intents.
//
// TransitionToConfirmed and ExpireOverdue are status-guarded updates: they
// only take effect when the stored status matches the expected prior state,
// which is what makes crediting exactly-once and expiry race-free under
// concurrent pollers.
type Repository interface {
	Create(ctx context.Context, intent *Intent) error
	Update(ctx context.Context, intent *Intent) error
	GetByDepositID(ctx context.Context, depositID string) (*Intent, error)

	// HasOutstanding reports whether the user already has a waiting or
	// pending intent for the same nominal amount.
	HasOutstanding(ctx context.Context, userID string, amountRaw uint64) (bool, error)

	// ListWaiting returns intents still waiting for a matching transfer.
	ListWaiting(ctx context.Context) ([]*Intent, error)

	// ListPending returns intents with an observed transfer that have not
	// reached the confirmation threshold yet.
	ListPending(ctx context.Context) ([]*Intent, error)

	// TransitionToConfirmed moves the intent from pending to confirmed.
	// Returns false if the intent was not in pending state (already
	// confirmed by another poller, or expired).
	TransitionToConfirmed(ctx context.Context, depositID string) (bool, error)

	// ExpireOverdue moves all waiting intents past their TTL to expired
	// and returns how many were transitioned.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
