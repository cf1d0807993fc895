package valueobjects

import (
	"crypto/md5"
	"encoding/binary"

	"tapbridge/internal/domain/shared/amount"
)

const (
	// Suffix range: 0001-9999 (0.0001 to 0.9999 token).
	minSuffix = 1
	maxSuffix = 9999
)

// OffsetSuffix derives the per-user amount suffix in [1, 9999] from the
// first four bytes of the MD5 digest of the user ID. The offset is a
// function of the user ID alone, so the same user always gets the same
// suffix and two users sharing a nominal amount get distinct unique
// amounts with overwhelming probability.
func OffsetSuffix(userID string) uint64 {
	sum := md5.Sum([]byte(userID))
	v := binary.BigEndian.Uint32(sum[:4])
	return minSuffix + uint64(v)%(maxSuffix-minSuffix+1)
}

// OffsetRaw is the user's offset expressed in raw units.
func OffsetRaw(userID string) uint64 {
	return OffsetSuffix(userID) * amount.SuffixUnit
}

// UniqueAmountRaw perturbs the requested amount with the user's offset so
// concurrent deposits sharing a nominal amount remain distinguishable
// on-chain. The result stays visually close to the requested amount.
func UniqueAmountRaw(amountRequestedRaw uint64, userID string) uint64 {
	return amountRequestedRaw + OffsetRaw(userID)
}
