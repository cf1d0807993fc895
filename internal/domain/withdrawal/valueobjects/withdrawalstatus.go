package valueobjects

// WithdrawalStatus represents the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	// WithdrawalStatusQueued means the request is enqueued with the
	// balance already debited.
	WithdrawalStatusQueued WithdrawalStatus = "queued"
	// WithdrawalStatusProcessing means a worker has claimed the request.
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	// WithdrawalStatusSent is terminal; the transaction was broadcast.
	WithdrawalStatusSent WithdrawalStatus = "sent"
	// WithdrawalStatusFailed is terminal; the debit was reversed.
	WithdrawalStatusFailed WithdrawalStatus = "failed"
)

func (s WithdrawalStatus) String() string {
	return string(s)
}

// IsFinal reports whether the status is terminal.
func (s WithdrawalStatus) IsFinal() bool {
	return s == WithdrawalStatusSent || s == WithdrawalStatusFailed
}

// IsValid reports whether the status is one of the known states.
func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalStatusQueued, WithdrawalStatusProcessing, WithdrawalStatusSent, WithdrawalStatusFailed:
		return true
	}
	return false
}
