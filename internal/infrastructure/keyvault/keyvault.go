// Package keyvault loads the custodial signing key from an encrypted
// go-ethereum keystore file. The plaintext key is decrypted on demand and
// never cached, logged or written anywhere.
package keyvault

import (
	"crypto/ecdsa"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"

	"tapbridge/internal/shared/config"
	apperrors "tapbridge/internal/shared/errors"
)

// FileVault decrypts the custodial key from a keystore blob on disk using
// a passphrase taken from the environment.
type FileVault struct {
	keystorePath  string
	passphraseEnv string
}

func NewFileVault(cfg *config.VaultConfig) *FileVault {
	return &FileVault{
		keystorePath:  cfg.KeystorePath,
		passphraseEnv: cfg.PassphraseEnv,
	}
}

// SigningKey reads and decrypts the keystore blob. Missing blob or
// passphrase maps to ErrKeyUnavailable, a bad passphrase or malformed key
// to ErrDecryptionFailed.
func (v *FileVault) SigningKey() (*ecdsa.PrivateKey, error) {
	blob, err := os.ReadFile(v.keystorePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read keystore %s: %v", apperrors.ErrKeyUnavailable, v.keystorePath, err)
	}

	passphrase := os.Getenv(v.passphraseEnv)
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase env %s is not set", apperrors.ErrKeyUnavailable, v.passphraseEnv)
	}

	key, err := keystore.DecryptKey(blob, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDecryptionFailed, err)
	}
	if key.PrivateKey == nil || key.PrivateKey.D.Sign() == 0 {
		return nil, fmt.Errorf("%w: decrypted key is empty", apperrors.ErrDecryptionFailed)
	}

	return key.PrivateKey, nil
}

// Address derives the custodial wallet address from the stored key.
func (v *FileVault) Address() (string, error) {
	key, err := v.SigningKey()
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
