package valueobjects

// DepositStatus represents the lifecycle state of a deposit intent.
type DepositStatus string

const (
	// DepositStatusWaiting means the intent was issued and no matching
	// transfer has been observed yet.
	DepositStatusWaiting DepositStatus = "waiting"
	// DepositStatusPending means a matching transfer was observed and
	// confirmations are accruing.
	DepositStatusPending DepositStatus = "pending"
	// DepositStatusConfirmed is terminal; the ledger has been credited.
	DepositStatusConfirmed DepositStatus = "confirmed"
	// DepositStatusExpired is terminal; the TTL elapsed with no match.
	DepositStatusExpired DepositStatus = "expired"
)

func (s DepositStatus) String() string {
	return string(s)
}

// IsFinal reports whether the status is terminal.
func (s DepositStatus) IsFinal() bool {
	return s == DepositStatusConfirmed || s == DepositStatusExpired
}

// IsValid reports whether the status is one of the known states.
func (s DepositStatus) IsValid() bool {
	switch s {
	case DepositStatusWaiting, DepositStatusPending, DepositStatusConfirmed, DepositStatusExpired:
		return true
	}
	return false
}
