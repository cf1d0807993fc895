// Package ledger defines the authoritative off-chain balance store.
// Balances are mutated only through atomic increments and decrements
// scoped to a single user; read-modify-write of a cached copy is
// prohibited to avoid lost updates under concurrent spend, earn, deposit
// and withdrawal traffic.
package ledger

import (
	"context"
	"time"
)

// Entry is a read-only view of one user's spendable balance.
type Entry struct {
	UserID     string
	BalanceRaw uint64
	UpdatedAt  time.Time
}

// Repository is the atomic-increment contract shared by the bridge and by
// game-mechanics collaborators.
type Repository interface {
	// Get returns the user's entry, with a zero balance for unknown users.
	Get(ctx context.Context, userID string) (*Entry, error)

	// Credit atomically increments the user's balance, creating the entry
	// if it does not exist yet.
	Credit(ctx context.Context, userID string, amountRaw uint64) error

	// Debit atomically decrements the user's balance. It fails with
	// errors.ErrInsufficientFunds when the balance cannot cover the
	// amount; the balance never goes negative.
	Debit(ctx context.Context, userID string, amountRaw uint64) error
}
