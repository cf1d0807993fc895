package deposit

import (
	"fmt"
	"time"

	vo "tapbridge/internal/domain/deposit/valueobjects"
	"tapbridge/internal/shared/biztime"
	"tapbridge/internal/shared/id"
)

// Intent is a deposit intent: the promise that a user will send exactly
// uniqueAmountRaw to the shared deposit address before expiresAt.
type Intent struct {
	dbID            uint
	depositID       string
	userID          string
	amountRaw       uint64
	uniqueAmountRaw uint64
	depositAddress  string
	status          vo.DepositStatus
	confirmations   int
	txHash          *string
	expiresAt       time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewIntent issues an intent for the given user and nominal amount. The
// unique amount is derived deterministically from the user ID, so the
// caller must reject a second intent for the same (user, amount) pair
// while one is still outstanding.
func NewIntent(userID string, amountRaw uint64, depositAddress string, ttl time.Duration) (*Intent, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if amountRaw == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if depositAddress == "" {
		return nil, fmt.Errorf("deposit address is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}

	depositID, err := id.NewDepositID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate deposit ID: %w", err)
	}

	now := biztime.NowUTC()
	return &Intent{
		depositID:       depositID,
		userID:          userID,
		amountRaw:       amountRaw,
		uniqueAmountRaw: vo.UniqueAmountRaw(amountRaw, userID),
		depositAddress:  depositAddress,
		status:          vo.DepositStatusWaiting,
		expiresAt:       now.Add(ttl),
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// MarkPending records the first sighting of a matching transfer.
func (i *Intent) MarkPending(txHash string, confirmations int) error {
	if i.status != vo.DepositStatusWaiting {
		return fmt.Errorf("cannot mark intent pending with status %s", i.status)
	}
	if txHash == "" {
		return fmt.Errorf("tx hash is required")
	}

	i.status = vo.DepositStatusPending
	i.txHash = &txHash
	i.confirmations = confirmations
	i.updatedAt = biztime.NowUTC()
	i.version++

	return nil
}

// SetConfirmations updates the observed confirmation count.
func (i *Intent) SetConfirmations(confirmations int) {
	if confirmations < 0 {
		confirmations = 0
	}
	i.confirmations = confirmations
	i.updatedAt = biztime.NowUTC()
}

// MarkConfirmed finalizes the intent. Only reachable from pending; the
// ledger credit is tied to this transition by the repository's
// status-guarded update.
func (i *Intent) MarkConfirmed() error {
	if i.status == vo.DepositStatusConfirmed {
		return nil
	}
	if i.status != vo.DepositStatusPending {
		return fmt.Errorf("cannot confirm intent with status %s", i.status)
	}

	i.status = vo.DepositStatusConfirmed
	i.updatedAt = biztime.NowUTC()
	i.version++

	return nil
}

// MarkExpired transitions a waiting intent past its TTL. Expired intents
// are never credited even if a late matching transfer appears.
func (i *Intent) MarkExpired() error {
	if i.status == vo.DepositStatusExpired {
		return nil
	}
	if i.status != vo.DepositStatusWaiting {
		return fmt.Errorf("cannot expire intent with status %s", i.status)
	}

	i.status = vo.DepositStatusExpired
	i.updatedAt = biztime.NowUTC()
	i.version++

	return nil
}

// IsExpired reports whether a waiting intent has passed its TTL.
func (i *Intent) IsExpired() bool {
	return i.status == vo.DepositStatusWaiting && biztime.NowUTC().After(i.expiresAt)
}

func (i *Intent) DBID() uint {
	return i.dbID
}

func (i *Intent) DepositID() string {
	return i.depositID
}

func (i *Intent) UserID() string {
	return i.userID
}

func (i *Intent) AmountRaw() uint64 {
	return i.amountRaw
}

func (i *Intent) UniqueAmountRaw() uint64 {
	return i.uniqueAmountRaw
}

func (i *Intent) DepositAddress() string {
	return i.depositAddress
}

func (i *Intent) Status() vo.DepositStatus {
	return i.status
}

func (i *Intent) Confirmations() int {
	return i.confirmations
}

func (i *Intent) TxHash() *string {
	return i.txHash
}

func (i *Intent) ExpiresAt() time.Time {
	return i.expiresAt
}

func (i *Intent) Version() int {
	return i.version
}

func (i *Intent) CreatedAt() time.Time {
	return i.createdAt
}

func (i *Intent) UpdatedAt() time.Time {
	return i.updatedAt
}

// SetDBID sets the database ID after persistence (used by repository after Create).
func (i *Intent) SetDBID(dbID uint) {
	i.dbID = dbID
}

// IntentParams carries all fields needed to rebuild an Intent from persistence.
type IntentParams struct {
	DBID            uint
	DepositID       string
	UserID          string
	AmountRaw       uint64
	UniqueAmountRaw uint64
	DepositAddress  string
	Status          vo.DepositStatus
	Confirmations   int
	TxHash          *string
	ExpiresAt       time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReconstructIntent rebuilds an Intent from persistence without validation.
func ReconstructIntent(p IntentParams) *Intent {
	return &Intent{
		dbID:            p.DBID,
		depositID:       p.DepositID,
		userID:          p.UserID,
		amountRaw:       p.AmountRaw,
		uniqueAmountRaw: p.UniqueAmountRaw,
		depositAddress:  p.DepositAddress,
		status:          p.Status,
		confirmations:   p.Confirmations,
		txHash:          p.TxHash,
		expiresAt:       p.ExpiresAt,
		version:         p.Version,
		createdAt:       p.CreatedAt,
		updatedAt:       p.UpdatedAt,
	}
}
