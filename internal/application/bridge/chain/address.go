package chain

import "github.com/ethereum/go-ethereum/common"

// IsValidAddress reports whether s is a well-formed ledger-chain address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}
