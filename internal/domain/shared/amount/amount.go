// Package amount defines the fixed-precision token amount representation
// used across the bridge. Amounts are carried as uint64 raw units with six
// decimal places; the ledger chain's native unit (wei, 18 decimals) is only
// produced at the chain boundary.
package amount

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const (
	// RawPerToken is the number of raw units per whole token (6 decimals).
	RawPerToken uint64 = 1_000_000

	// SuffixUnit is 0.0001 token in raw units, the granularity of the
	// per-user unique-amount offset.
	SuffixUnit uint64 = 100
)

// weiPerRaw converts raw units (6 decimals) to wei (18 decimals).
var weiPerRaw = big.NewInt(1_000_000_000_000)

// Format renders a raw amount as a decimal token string with trailing
// zeros trimmed, e.g. 10_012_300 -> "10.0123".
func Format(raw uint64) string {
	whole := raw / RawPerToken
	frac := raw % RawPerToken
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := fmt.Sprintf("%d.%06d", whole, frac)
	return strings.TrimRight(s, "0")
}

// Parse converts a decimal token string ("10", "10.0123") to raw units.
// More than six fractional digits is an error, not silent truncation.
func Parse(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	wholePart, fracPart, hasFrac := strings.Cut(s, ".")
	if wholePart == "" {
		wholePart = "0"
	}

	whole, err := strconv.ParseUint(wholePart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var frac uint64
	if hasFrac {
		if fracPart == "" || len(fracPart) > 6 {
			return 0, fmt.Errorf("amount %q has more than 6 decimal places", s)
		}
		frac, err = strconv.ParseUint(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		for i := len(fracPart); i < 6; i++ {
			frac *= 10
		}
	}

	if whole > (math.MaxUint64-frac)/RawPerToken {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return whole*RawPerToken + frac, nil
}

// ToWei converts a raw amount to the chain's native wei representation.
func ToWei(raw uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(raw), weiPerRaw)
}

// FromWei converts a wei value to raw units, truncating sub-raw dust.
// Values too large for uint64 raw units report ok=false.
func FromWei(wei *big.Int) (raw uint64, ok bool) {
	if wei == nil || wei.Sign() < 0 {
		return 0, false
	}
	q := new(big.Int).Quo(wei, weiPerRaw)
	if !q.IsUint64() {
		return 0, false
	}
	return q.Uint64(), true
}
