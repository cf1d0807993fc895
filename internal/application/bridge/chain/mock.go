package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"
)

// MockClient is a scriptable in-memory Client for tests. Zero-value fields
// fall back to simple defaults; set the Fn fields to override behavior.
type MockClient struct {
	mu sync.Mutex

	Transfers     []Transfer
	BlockNumber   uint64
	PendingNonce  uint64
	Confirmations map[string]int
	BalanceRaw    uint64

	GetBalanceFn        func(ctx context.Context, address string) (uint64, error)
	GetPendingNonceFn   func(ctx context.Context, address string) (uint64, error)
	GetConfirmationsFn  func(ctx context.Context, txHash string) (int, error)
	RecentTransfersFn   func(ctx context.Context, toAddress string, lookbackBlocks uint64) ([]Transfer, error)
	BroadcastTransferFn func(ctx context.Context, key *ecdsa.PrivateKey, nonce uint64, toAddress string, amountRaw uint64) (string, error)

	broadcasts int
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	if m.GetBalanceFn != nil {
		return m.GetBalanceFn(ctx, address)
	}
	return m.BalanceRaw, nil
}

func (m *MockClient) GetPendingNonce(ctx context.Context, address string) (uint64, error) {
	if m.GetPendingNonceFn != nil {
		return m.GetPendingNonceFn(ctx, address)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PendingNonce, nil
}

func (m *MockClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.BlockNumber, nil
}

func (m *MockClient) GetConfirmations(ctx context.Context, txHash string) (int, error) {
	if m.GetConfirmationsFn != nil {
		return m.GetConfirmationsFn(ctx, txHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Confirmations[txHash], nil
}

func (m *MockClient) RecentTransfers(ctx context.Context, toAddress string, lookbackBlocks uint64) ([]Transfer, error) {
	if m.RecentTransfersFn != nil {
		return m.RecentTransfersFn(ctx, toAddress, lookbackBlocks)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transfer
	for _, tr := range m.Transfers {
		if tr.ToAddress == toAddress {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (m *MockClient) BroadcastTransfer(ctx context.Context, key *ecdsa.PrivateKey, nonce uint64, toAddress string, amountRaw uint64) (string, error) {
	if m.BroadcastTransferFn != nil {
		return m.BroadcastTransferFn(ctx, key, nonce, toAddress, amountRaw)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcasts++
	return fmt.Sprintf("0xmock%08d", m.broadcasts), nil
}

// InjectTransfer appends an observed transfer, optionally with a known
// confirmation count.
func (m *MockClient) InjectTransfer(tr Transfer, confirmations int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transfers = append(m.Transfers, tr)
	if m.Confirmations == nil {
		m.Confirmations = make(map[string]int)
	}
	m.Confirmations[tr.TxHash] = confirmations
}

// Broadcasts returns how many transfers were broadcast via the default path.
func (m *MockClient) Broadcasts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcasts
}
