// Package nonce defines the nonce-allocation port for the custodial address.
package nonce

import "context"

// Allocator hands out the next transaction sequence number for an address
// such that two concurrent withdrawal attempts never reuse a nonce.
type Allocator interface {
	// Next fails with errors.ErrNonceUnavailable when the lease cache is
	// cold and the chain is unreachable.
	Next(ctx context.Context, address string) (uint64, error)

	// Reset discards the allocator's state for the address so the next
	// lease reseeds from the chain's pending nonce. Called after a
	// definitive broadcast rejection, which can indicate counter drift.
	Reset(ctx context.Context, address string) error
}
