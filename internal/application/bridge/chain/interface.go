// Package chain defines the ledger-chain port consumed by the bridge use
// cases. The production implementation lives in infrastructure/blockchain;
// tests use the scriptable mock in this package.
package chain

import (
	"context"
	"crypto/ecdsa"
	"time"
)

// Transfer is an observed inbound transfer to the deposit address.
// Amounts are in raw units (see domain/shared/amount).
type Transfer struct {
	TxHash      string
	FromAddress string
	ToAddress   string
	AmountRaw   uint64
	BlockNumber uint64
	Timestamp   time.Time
}

// Client is the read/write adapter over the ledger-chain RPC. All methods
// fail with errors.ErrRPCUnavailable on network or timeout errors and with
// errors.ErrChainRejected on a definitive on-chain rejection.
type Client interface {
	// GetBalance returns the address balance in raw units.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetPendingNonce returns the chain's authoritative pending
	// transaction count for the address.
	GetPendingNonce(ctx context.Context, address string) (uint64, error)

	// GetBlockNumber returns the current chain head number.
	GetBlockNumber(ctx context.Context) (uint64, error)

	// GetConfirmations returns how many blocks have been produced on top
	// of the block containing the transaction, or 0 if unmined.
	GetConfirmations(ctx context.Context, txHash string) (int, error)

	// RecentTransfers scans the most recent lookbackBlocks blocks for
	// inbound transfers to the given address.
	RecentTransfers(ctx context.Context, toAddress string, lookbackBlocks uint64) ([]Transfer, error)

	// BroadcastTransfer builds, signs and broadcasts a transfer of
	// amountRaw from the key's address using the given nonce. Gas price
	// and limit come from static configuration.
	BroadcastTransfer(ctx context.Context, key *ecdsa.PrivateKey, nonce uint64, toAddress string, amountRaw uint64) (txHash string, err error)
}
