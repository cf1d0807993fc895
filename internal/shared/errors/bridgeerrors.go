package errors

import "errors"

// Bridge error taxonomy. These are sentinel errors so callers can branch
// with errors.Is; transient ones are retried by the processing loops,
// terminal ones trigger compensation or are surfaced to the caller.
var (
	// ErrRPCUnavailable indicates a transient chain RPC failure
	// (network error, timeout). Safe to retry with backoff.
	ErrRPCUnavailable = errors.New("chain rpc unavailable")

	// ErrChainRejected indicates a definitive on-chain rejection of a
	// transaction (bad nonce, insufficient gas funds, invalid recipient).
	// Not to be retried blindly.
	ErrChainRejected = errors.New("transaction rejected by chain")

	// ErrKeyUnavailable indicates the encrypted keystore blob or its
	// passphrase is missing. Operator-visible configuration error.
	ErrKeyUnavailable = errors.New("signing key unavailable")

	// ErrDecryptionFailed indicates the keystore blob could not be
	// decrypted or the decrypted material is not a valid private key.
	ErrDecryptionFailed = errors.New("keystore decryption failed")

	// ErrNonceUnavailable indicates no nonce could be issued because the
	// lease cache is cold and the chain is unreachable. Transient.
	ErrNonceUnavailable = errors.New("nonce unavailable")

	// ErrInsufficientFunds indicates the user's game balance cannot cover
	// the requested withdrawal.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrInvalidAddress indicates the withdrawal destination does not match
	// the chain's address format.
	ErrInvalidAddress = errors.New("invalid destination address")

	// ErrDepositOutstanding indicates the user already has a waiting or
	// pending intent for the same nominal amount. A second identical intent
	// would produce the same unique amount and be unmatchable.
	ErrDepositOutstanding = errors.New("deposit intent already outstanding for this amount")
)

// IsTransient reports whether the error is worth retrying on a later pass.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRPCUnavailable) || errors.Is(err, ErrNonceUnavailable)
}
