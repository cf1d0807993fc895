package keyvault

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapbridge/internal/shared/config"
	apperrors "tapbridge/internal/shared/errors"
)

const testPassphrase = "correct horse battery staple"

// newTestKeystore writes an encrypted keystore file and returns its path
// plus the expected address.
func newTestKeystore(t *testing.T) (string, string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.ImportECDSA(key, testPassphrase)
	require.NoError(t, err)

	return account.URL.Path, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestFileVault_SigningKey_Success(t *testing.T) {
	path, address := newTestKeystore(t)
	t.Setenv("TEST_VAULT_PASSPHRASE", testPassphrase)

	vault := NewFileVault(&config.VaultConfig{
		KeystorePath:  path,
		PassphraseEnv: "TEST_VAULT_PASSPHRASE",
	})

	key, err := vault.SigningKey()
	require.NoError(t, err)
	assert.Equal(t, address, crypto.PubkeyToAddress(key.PublicKey).Hex())

	derived, err := vault.Address()
	require.NoError(t, err)
	assert.Equal(t, address, derived)
}

func TestFileVault_SigningKey_MissingKeystore(t *testing.T) {
	t.Setenv("TEST_VAULT_PASSPHRASE", testPassphrase)

	vault := NewFileVault(&config.VaultConfig{
		KeystorePath:  "/nonexistent/keystore.json",
		PassphraseEnv: "TEST_VAULT_PASSPHRASE",
	})

	_, err := vault.SigningKey()
	assert.ErrorIs(t, err, apperrors.ErrKeyUnavailable)
}

func TestFileVault_SigningKey_MissingPassphrase(t *testing.T) {
	path, _ := newTestKeystore(t)

	vault := NewFileVault(&config.VaultConfig{
		KeystorePath:  path,
		PassphraseEnv: "TEST_VAULT_PASSPHRASE_UNSET",
	})

	_, err := vault.SigningKey()
	assert.ErrorIs(t, err, apperrors.ErrKeyUnavailable)
}

func TestFileVault_SigningKey_WrongPassphrase(t *testing.T) {
	path, _ := newTestKeystore(t)
	t.Setenv("TEST_VAULT_PASSPHRASE", "not the passphrase")

	vault := NewFileVault(&config.VaultConfig{
		KeystorePath:  path,
		PassphraseEnv: "TEST_VAULT_PASSPHRASE",
	})

	_, err := vault.SigningKey()
	assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed)
}
