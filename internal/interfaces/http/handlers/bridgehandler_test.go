package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapbridge/internal/application/bridge/usecases"
	"tapbridge/internal/domain/deposit"
	depositvo "tapbridge/internal/domain/deposit/valueobjects"
	"tapbridge/internal/domain/ledger"
	"tapbridge/internal/domain/withdrawal"
	"tapbridge/internal/interfaces/http/handlers"
	"tapbridge/internal/interfaces/http/routes"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

// =====================================================================
// In-memory repositories
// =====================================================================

type memDepositRepo struct {
	mu      sync.Mutex
	intents map[string]*deposit.Intent
}

func newMemDepositRepo() *memDepositRepo {
	return &memDepositRepo{intents: make(map[string]*deposit.Intent)}
}

func (r *memDepositRepo) Create(ctx context.Context, intent *deposit.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent.SetDBID(uint(len(r.intents) + 1))
	r.intents[intent.DepositID()] = intent
	return nil
}

func (r *memDepositRepo) Update(ctx context.Context, intent *deposit.Intent) error {
	return nil
}

func (r *memDepositRepo) GetByDepositID(ctx context.Context, depositID string) (*deposit.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intents[depositID], nil
}

func (r *memDepositRepo) HasOutstanding(ctx context.Context, userID string, amountRaw uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, intent := range r.intents {
		if intent.UserID() == userID && intent.AmountRaw() == amountRaw && !intent.Status().IsFinal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memDepositRepo) ListWaiting(ctx context.Context) ([]*deposit.Intent, error) {
	return nil, nil
}

func (r *memDepositRepo) ListPending(ctx context.Context) ([]*deposit.Intent, error) {
	return nil, nil
}

func (r *memDepositRepo) TransitionToConfirmed(ctx context.Context, depositID string) (bool, error) {
	return false, nil
}

func (r *memDepositRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type memWithdrawalRepo struct {
	mu       sync.Mutex
	requests map[string]*withdrawal.Request
}

func newMemWithdrawalRepo() *memWithdrawalRepo {
	return &memWithdrawalRepo{requests: make(map[string]*withdrawal.Request)}
}

func (r *memWithdrawalRepo) Create(ctx context.Context, req *withdrawal.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.SetDBID(uint(len(r.requests) + 1))
	r.requests[req.WithdrawalID()] = req
	return nil
}

func (r *memWithdrawalRepo) Update(ctx context.Context, req *withdrawal.Request) error {
	return nil
}

func (r *memWithdrawalRepo) GetByWithdrawalID(ctx context.Context, withdrawalID string) (*withdrawal.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[withdrawalID], nil
}

func (r *memWithdrawalRepo) ClaimNext(ctx context.Context) (*withdrawal.Request, error) {
	return nil, nil
}

func (r *memWithdrawalRepo) MarkSent(ctx context.Context, withdrawalID, txHash string, nonce uint64) (bool, error) {
	return false, nil
}

func (r *memWithdrawalRepo) MarkFailed(ctx context.Context, withdrawalID, reason string) (bool, error) {
	return false, nil
}

func (r *memWithdrawalRepo) ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	return 0, nil
}

type memLedgerRepo struct {
	mu       sync.Mutex
	balances map[string]uint64
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{balances: make(map[string]uint64)}
}

func (r *memLedgerRepo) Get(ctx context.Context, userID string) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &ledger.Entry{UserID: userID, BalanceRaw: r.balances[userID]}, nil
}

func (r *memLedgerRepo) Credit(ctx context.Context, userID string, amountRaw uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] += amountRaw
	return nil
}

func (r *memLedgerRepo) Debit(ctx context.Context, userID string, amountRaw uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balances[userID] < amountRaw {
		return apperrors.ErrInsufficientFunds
	}
	r.balances[userID] -= amountRaw
	return nil
}

type directTxRunner struct{}

func (directTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type quietLogger struct{}

func (quietLogger) Debug(msg string, args ...any)                   {}
func (quietLogger) Info(msg string, args ...any)                    {}
func (quietLogger) Warn(msg string, args ...any)                    {}
func (quietLogger) Error(msg string, args ...any)                   {}
func (quietLogger) Fatal(msg string, args ...any)                   {}
func (l quietLogger) With(args ...any) logger.Interface             { return l }
func (l quietLogger) Named(name string) logger.Interface            { return l }
func (quietLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (quietLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (quietLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (quietLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (quietLogger) Fatalw(msg string, keysAndValues ...interface{}) {}

// =====================================================================
// Test fixture
// =====================================================================

const testDepositAddress = "0x000000000000000000000000000000000000dEaD"

type handlerFixture struct {
	engine      *gin.Engine
	deposits    *memDepositRepo
	withdrawals *memWithdrawalRepo
	balances    *memLedgerRepo
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deposits := newMemDepositRepo()
	withdrawals := newMemWithdrawalRepo()
	balances := newMemLedgerRepo()
	log := quietLogger{}

	handler := handlers.NewBridgeHandler(
		usecases.NewCreateDepositUseCase(deposits, testDepositAddress, time.Hour, log),
		usecases.NewGetDepositStatusUseCase(deposits),
		usecases.NewCreateWithdrawalUseCase(withdrawals, balances, directTxRunner{}, log),
		usecases.NewGetWithdrawalStatusUseCase(withdrawals),
		usecases.NewGetBalanceUseCase(balances),
		usecases.NewAdjustBalanceUseCase(balances, log),
	)

	engine := gin.New()
	routes.SetupBridgeRoutes(engine, &routes.BridgeRouteConfig{BridgeHandler: handler})

	return &handlerFixture{
		engine:      engine,
		deposits:    deposits,
		withdrawals: withdrawals,
		balances:    balances,
	}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

// =====================================================================
// Deposit endpoints
// =====================================================================

func TestCreateDeposit(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/bridge/deposits", gin.H{
		"user_id": "user-1",
		"amount":  "10",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeData(t, w)
	assert.Contains(t, data["deposit_id"], "dep_")
	assert.Equal(t, testDepositAddress, data["deposit_address"])

	// The unique amount carries the user's suffix on top of the nominal
	// ten tokens.
	assert.NotEqual(t, "10", data["unique_amount"])
	assert.Contains(t, data["unique_amount"], "10.")

	_, err := time.Parse(time.RFC3339, data["expires_at"].(string))
	assert.NoError(t, err)
}

func TestCreateDeposit_BadRequests(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing user", gin.H{"amount": "10"}},
		{"missing amount", gin.H{"user_id": "user-1"}},
		{"malformed amount", gin.H{"user_id": "user-1", "amount": "ten"}},
		{"too precise amount", gin.H{"user_id": "user-1", "amount": "1.0000001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/bridge/deposits", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateDeposit_DuplicateOutstandingConflicts(t *testing.T) {
	f := newHandlerFixture(t)

	body := gin.H{"user_id": "user-1", "amount": "10"}
	w := f.do(t, http.MethodPost, "/api/bridge/deposits", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/bridge/deposits", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetDeposit(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/bridge/deposits", gin.H{
		"user_id": "user-1",
		"amount":  "10",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	depositID := decodeData(t, w)["deposit_id"].(string)

	w = f.do(t, http.MethodGet, "/api/bridge/deposits/"+depositID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, depositID, data["deposit_id"])
	assert.Equal(t, depositvo.DepositStatusWaiting.String(), data["status"])
}

func TestGetDeposit_NotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/bridge/deposits/dep_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =====================================================================
// Withdrawal endpoints
// =====================================================================

const testRecipient = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

func TestCreateWithdrawal(t *testing.T) {
	f := newHandlerFixture(t)
	f.balances.balances["user-1"] = 5_000_000

	w := f.do(t, http.MethodPost, "/api/bridge/withdrawals", gin.H{
		"user_id":    "user-1",
		"to_address": testRecipient,
		"amount":     "2",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeData(t, w)
	assert.Contains(t, data["withdrawal_id"], "wd_")
	assert.Equal(t, "queued", data["status"])
	assert.Equal(t, uint64(3_000_000), f.balances.balances["user-1"])
}

func TestCreateWithdrawal_InsufficientBalance(t *testing.T) {
	f := newHandlerFixture(t)
	f.balances.balances["user-1"] = 1_000_000

	w := f.do(t, http.MethodPost, "/api/bridge/withdrawals", gin.H{
		"user_id":    "user-1",
		"to_address": testRecipient,
		"amount":     "2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, uint64(1_000_000), f.balances.balances["user-1"])
}

func TestCreateWithdrawal_InvalidAddress(t *testing.T) {
	f := newHandlerFixture(t)
	f.balances.balances["user-1"] = 5_000_000

	w := f.do(t, http.MethodPost, "/api/bridge/withdrawals", gin.H{
		"user_id":    "user-1",
		"to_address": "not-an-address",
		"amount":     "2",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, uint64(5_000_000), f.balances.balances["user-1"])
}

func TestGetWithdrawal(t *testing.T) {
	f := newHandlerFixture(t)
	f.balances.balances["user-1"] = 5_000_000

	w := f.do(t, http.MethodPost, "/api/bridge/withdrawals", gin.H{
		"user_id":    "user-1",
		"to_address": testRecipient,
		"amount":     "2",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	withdrawalID := decodeData(t, w)["withdrawal_id"].(string)

	w = f.do(t, http.MethodGet, "/api/bridge/withdrawals/"+withdrawalID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, withdrawalID, data["withdrawal_id"])
	assert.Equal(t, "queued", data["status"])
	assert.Equal(t, testRecipient, data["to_address"])
}

func TestGetWithdrawal_NotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/bridge/withdrawals/wd_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =====================================================================
// Balance endpoints
// =====================================================================

func TestGetBalance(t *testing.T) {
	f := newHandlerFixture(t)
	f.balances.balances["user-1"] = 12_300_000

	w := f.do(t, http.MethodGet, "/api/bridge/balances/user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "user-1", data["user_id"])
	assert.Equal(t, "12.3", data["balance"])
}

func TestGetBalance_UnknownUserIsZero(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/bridge/balances/ghost", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "0", data["balance"])
}

func TestCreditAndDebitBalance(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/internal/balances/credit", gin.H{
		"user_id": "user-1",
		"amount":  "5",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(5_000_000), f.balances.balances["user-1"])

	w = f.do(t, http.MethodPost, "/api/internal/balances/debit", gin.H{
		"user_id": "user-1",
		"amount":  "1.5",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(3_500_000), f.balances.balances["user-1"])

	data := decodeData(t, w)
	assert.Equal(t, "3.5", data["balance"])
}

func TestDebitBalance_Insufficient(t *testing.T) {
	f := newHandlerFixture(t)
	f.balances.balances["user-1"] = 1_000_000

	w := f.do(t, http.MethodPost, "/api/internal/balances/debit", gin.H{
		"user_id": "user-1",
		"amount":  "2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, uint64(1_000_000), f.balances.balances["user-1"])
}
