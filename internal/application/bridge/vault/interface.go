// Package vault defines the signing-key port for the custodial wallet.
package vault

import "crypto/ecdsa"

// KeySource decrypts and returns the custodial signing key on demand.
// Implementations must never log or persist the plaintext key; callers
// hold it only in locals for the duration of a signing operation.
type KeySource interface {
	// SigningKey fails with errors.ErrKeyUnavailable when the encrypted
	// blob or passphrase is missing and errors.ErrDecryptionFailed when
	// the blob cannot be decrypted or fails the key format check.
	SigningKey() (*ecdsa.PrivateKey, error)
}
