package withdrawal

import (
	"fmt"
	"time"

	vo "tapbridge/internal/domain/withdrawal/valueobjects"
	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/id"
)

// Request is a withdrawal request from the custodial wallet to a
// user-provided address. It is created queued with the ledger already
// debited; a terminal failed state implies the debit was reversed.
type Request struct {
	dbID         uint
	withdrawalID string
	userID       string
	toAddress    string
	amountRaw    uint64
	status       vo.WithdrawalStatus
	txHash       *string
	lastError    *string
	nonce        *uint64
	requestedAt  time.Time
	claimedAt    *time.Time
	processedAt  *time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewRequest creates a queued withdrawal request. Address-format and
// balance validation happen in the use case before the request exists.
func NewRequest(userID, toAddress string, amountRaw uint64) (*Request, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if toAddress == "" {
		return nil, fmt.Errorf("destination address is required")
	}
	if amountRaw == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	withdrawalID, err := id.NewWithdrawalID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate withdrawal ID: %w", err)
	}

	now := biztime.NowUTC()
	return &Request{
		withdrawalID: withdrawalID,
		userID:       userID,
		toAddress:    toAddress,
		amountRaw:    amountRaw,
		status:       vo.WithdrawalStatusQueued,
		requestedAt:  now,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// MarkProcessing records the worker claim.
func (r *Request) MarkProcessing() error {
	if r.status != vo.WithdrawalStatusQueued {
		return fmt.Errorf("cannot claim request with status %s", r.status)
	}

	now := biztime.NowUTC()
	r.status = vo.WithdrawalStatusProcessing
	r.claimedAt = &now
	r.updatedAt = now
	r.version++

	return nil
}

// SetNonce records the leased transaction nonce.
func (r *Request) SetNonce(nonce uint64) {
	r.nonce = &nonce
	r.updatedAt = biztime.NowUTC()
}

// MarkSent finalizes a successful broadcast.
func (r *Request) MarkSent(txHash string) error {
	if r.status == vo.WithdrawalStatusSent {
		return nil
	}
	if r.status != vo.WithdrawalStatusProcessing {
		return fmt.Errorf("cannot mark request sent with status %s", r.status)
	}
	if txHash == "" {
		return fmt.Errorf("tx hash is required")
	}

	now := biztime.NowUTC()
	r.status = vo.WithdrawalStatusSent
	r.txHash = &txHash
	r.processedAt = &now
	r.updatedAt = now
	r.version++

	return nil
}

// MarkFailed finalizes a failed attempt. The caller is responsible for
// reversing the ledger debit in the same transaction as the status-guarded
// repository update.
func (r *Request) MarkFailed(reason string) error {
	if r.status == vo.WithdrawalStatusFailed {
		return nil
	}
	if r.status.IsFinal() {
		return fmt.Errorf("cannot mark request failed with final status %s", r.status)
	}

	now := biztime.NowUTC()
	r.status = vo.WithdrawalStatusFailed
	r.lastError = &reason
	r.processedAt = &now
	r.updatedAt = now
	r.version++

	return nil
}

func (r *Request) DBID() uint {
	return r.dbID
}

func (r *Request) WithdrawalID() string {
	return r.withdrawalID
}

func (r *Request) UserID() string {
	return r.userID
}

func (r *Request) ToAddress() string {
	return r.toAddress
}

func (r *Request) AmountRaw() uint64 {
	return r.amountRaw
}

func (r *Request) Status() vo.WithdrawalStatus {
	return r.status
}

func (r *Request) TxHash() *string {
	return r.txHash
}

func (r *Request) LastError() *string {
	return r.lastError
}

func (r *Request) Nonce() *uint64 {
	return r.nonce
}

func (r *Request) RequestedAt() time.Time {
	return r.requestedAt
}

func (r *Request) ClaimedAt() *time.Time {
	return r.claimedAt
}

func (r *Request) ProcessedAt() *time.Time {
	return r.processedAt
}

func (r *Request) Version() int {
	return r.version
}

func (r *Request) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Request) UpdatedAt() time.Time {
	return r.updatedAt
}

// SetDBID sets the database ID after persistence (used by repository after Create).
func (r *Request) SetDBID(dbID uint) {
	r.dbID = dbID
}

// RequestParams carries all fields needed to rebuild a Request from persistence.
type RequestParams struct {
	DBID         uint
	WithdrawalID string
	UserID       string
	ToAddress    string
	AmountRaw    uint64
	Status       vo.WithdrawalStatus
	TxHash       *string
	LastError    *string
	Nonce        *uint64
	RequestedAt  time.Time
	ClaimedAt    *time.Time
	ProcessedAt  *time.Time
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReconstructRequest rebuilds a Request from persistence without validation.
func ReconstructRequest(p RequestParams) *Request {
	return &Request{
		dbID:         p.DBID,
		withdrawalID: p.WithdrawalID,
		userID:       p.UserID,
		toAddress:    p.ToAddress,
		amountRaw:    p.AmountRaw,
		status:       p.Status,
		txHash:       p.TxHash,
		lastError:    p.LastError,
		nonce:        p.Nonce,
		requestedAt:  p.RequestedAt,
		claimedAt:    p.ClaimedAt,
		processedAt:  p.ProcessedAt,
		version:      p.Version,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}
