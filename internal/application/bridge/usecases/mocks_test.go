package usecases

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"time"

	"tapbridge/internal/domain/deposit"
	depositvo "tapbridge/internal/domain/deposit/valueobjects"
	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/domain/withdrawal"
	withdrawalvo "tapbridge/internal/domain/withdrawal/valueobjects"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

type noopLogger struct{}

func newNoopLogger() logger.Interface { return &noopLogger{} }

func (l *noopLogger) Debug(msg string, args ...any)                   {}
func (l *noopLogger) Info(msg string, args ...any)                    {}
func (l *noopLogger) Warn(msg string, args ...any)                    {}
func (l *noopLogger) Error(msg string, args ...any)                   {}
func (l *noopLogger) Fatal(msg string, args ...any)                   {}
func (l *noopLogger) With(args ...any) logger.Interface               { return l }
func (l *noopLogger) Named(name string) logger.Interface              { return l }
func (l *noopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *noopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *noopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *noopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (l *noopLogger) Fatalw(msg string, keysAndValues ...interface{}) {}

// passthroughTxRunner runs the function directly. The fakes apply each
// mutation immediately, so transactional atomicity is not under test here.
type passthroughTxRunner struct{}

func (passthroughTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeDepositRepo is an in-memory deposit.Repository with the same
// status-guard semantics as the SQL implementation.
type fakeDepositRepo struct {
	mu      sync.Mutex
	order   []string
	intents map[string]*deposit.Intent
}

func newFakeDepositRepo() *fakeDepositRepo {
	return &fakeDepositRepo{intents: make(map[string]*deposit.Intent)}
}

func (r *fakeDepositRepo) Create(ctx context.Context, intent *deposit.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirror the active-key unique index: at most one non-terminal intent
	// per (user, amount) pair survives the insert.
	for _, existing := range r.intents {
		if existing.UserID() != intent.UserID() || existing.AmountRaw() != intent.AmountRaw() {
			continue
		}
		if existing.Status() == depositvo.DepositStatusWaiting || existing.Status() == depositvo.DepositStatusPending {
			return apperrors.ErrDepositOutstanding
		}
	}
	intent.SetDBID(uint(len(r.order) + 1))
	r.order = append(r.order, intent.DepositID())
	r.intents[intent.DepositID()] = intent
	return nil
}

func (r *fakeDepositRepo) Update(ctx context.Context, intent *deposit.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents[intent.DepositID()] = intent
	return nil
}

func (r *fakeDepositRepo) GetByDepositID(ctx context.Context, depositID string) (*deposit.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intents[depositID], nil
}

func (r *fakeDepositRepo) HasOutstanding(ctx context.Context, userID string, amountRaw uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, intent := range r.intents {
		if intent.UserID() != userID || intent.AmountRaw() != amountRaw {
			continue
		}
		if intent.Status() == depositvo.DepositStatusWaiting || intent.Status() == depositvo.DepositStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDepositRepo) ListWaiting(ctx context.Context) ([]*deposit.Intent, error) {
	return r.listByStatus(depositvo.DepositStatusWaiting), nil
}

func (r *fakeDepositRepo) ListPending(ctx context.Context) ([]*deposit.Intent, error) {
	return r.listByStatus(depositvo.DepositStatusPending), nil
}

func (r *fakeDepositRepo) listByStatus(status depositvo.DepositStatus) []*deposit.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*deposit.Intent
	for _, id := range r.order {
		if intent := r.intents[id]; intent.Status() == status {
			out = append(out, intent)
		}
	}
	return out
}

func (r *fakeDepositRepo) TransitionToConfirmed(ctx context.Context, depositID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[depositID]
	if !ok || intent.Status() != depositvo.DepositStatusPending {
		return false, nil
	}
	if err := intent.MarkConfirmed(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *fakeDepositRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, intent := range r.intents {
		if intent.Status() == depositvo.DepositStatusWaiting && now.After(intent.ExpiresAt()) {
			if err := intent.MarkExpired(); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// fakeWithdrawalRepo is an in-memory withdrawal.Repository with the same
// claim and finalize guards as the SQL implementation.
type fakeWithdrawalRepo struct {
	mu       sync.Mutex
	order    []string
	requests map[string]*withdrawal.Request
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{requests: make(map[string]*withdrawal.Request)}
}

func (r *fakeWithdrawalRepo) Create(ctx context.Context, req *withdrawal.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.SetDBID(uint(len(r.order) + 1))
	r.order = append(r.order, req.WithdrawalID())
	r.requests[req.WithdrawalID()] = req
	return nil
}

func (r *fakeWithdrawalRepo) Update(ctx context.Context, req *withdrawal.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.WithdrawalID()] = req
	return nil
}

func (r *fakeWithdrawalRepo) GetByWithdrawalID(ctx context.Context, withdrawalID string) (*withdrawal.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[withdrawalID], nil
}

func (r *fakeWithdrawalRepo) ClaimNext(ctx context.Context) (*withdrawal.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		req := r.requests[id]
		if req.Status() != withdrawalvo.WithdrawalStatusQueued {
			continue
		}
		if err := req.MarkProcessing(); err != nil {
			return nil, err
		}
		return req, nil
	}
	return nil, nil
}

func (r *fakeWithdrawalRepo) MarkSent(ctx context.Context, withdrawalID, txHash string, nonce uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[withdrawalID]
	if !ok || req.Status() != withdrawalvo.WithdrawalStatusProcessing {
		return false, nil
	}
	req.SetNonce(nonce)
	if err := req.MarkSent(txHash); err != nil {
		return false, err
	}
	return true, nil
}

func (r *fakeWithdrawalRepo) MarkFailed(ctx context.Context, withdrawalID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[withdrawalID]
	if !ok || req.Status() != withdrawalvo.WithdrawalStatusProcessing {
		return false, nil
	}
	if err := req.MarkFailed(reason); err != nil {
		return false, err
	}
	return true, nil
}

func (r *fakeWithdrawalRepo) ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range r.order {
		req := r.requests[id]
		if req.Status() != withdrawalvo.WithdrawalStatusProcessing {
			continue
		}
		claimedAt := req.ClaimedAt()
		if claimedAt == nil || !claimedAt.Before(claimedBefore) {
			continue
		}
		r.requests[id] = withdrawal.ReconstructRequest(withdrawal.RequestParams{
			DBID:         req.DBID(),
			WithdrawalID: req.WithdrawalID(),
			UserID:       req.UserID(),
			ToAddress:    req.ToAddress(),
			AmountRaw:    req.AmountRaw(),
			Status:       withdrawalvo.WithdrawalStatusQueued,
			RequestedAt:  req.RequestedAt(),
			Version:      req.Version() + 1,
			CreatedAt:    req.CreatedAt(),
			UpdatedAt:    time.Now().UTC(),
		})
		n++
	}
	return n, nil
}

// fakeLedgerRepo is an in-memory ledger.Repository.
type fakeLedgerRepo struct {
	mu       sync.Mutex
	balances map[string]uint64
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{balances: make(map[string]uint64)}
}

func (r *fakeLedgerRepo) Get(ctx context.Context, userID string) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &ledger.Entry{
		UserID:     userID,
		BalanceRaw: r.balances[userID],
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

func (r *fakeLedgerRepo) Credit(ctx context.Context, userID string, amountRaw uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] += amountRaw
	return nil
}

func (r *fakeLedgerRepo) Debit(ctx context.Context, userID string, amountRaw uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balances[userID] < amountRaw {
		return apperrors.ErrInsufficientFunds
	}
	r.balances[userID] -= amountRaw
	return nil
}

func (r *fakeLedgerRepo) balance(userID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[userID]
}

// staticKeySource returns a fixed key, or an error when set.
type staticKeySource struct {
	key *ecdsa.PrivateKey
	err error
}

func (s *staticKeySource) SigningKey() (*ecdsa.PrivateKey, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.key, nil
}

// counterNonceAllocator hands out sequential nonces from a base value and
// records how many leases and resets were requested.
type counterNonceAllocator struct {
	mu     sync.Mutex
	next   uint64
	err    error
	leases int
	resets int
}

func (a *counterNonceAllocator) Next(ctx context.Context, address string) (uint64, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.leases++
	n := a.next
	a.next++
	return n, nil
}

func (a *counterNonceAllocator) Reset(ctx context.Context, address string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets++
	return nil
}

func (a *counterNonceAllocator) leaseCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.leases
}

func (a *counterNonceAllocator) resetCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resets
}
