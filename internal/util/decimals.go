// Package util holds small helpers shared across the SDK, chiefly exact
// decimal conversion between zatoshi and ZEC. Conversions are string-based:
// node RPC amounts are decimal ZEC, and floats cannot represent all zatoshi
// values exactly.
package util

import (
	"fmt"
	"strings"
)

const (
	// ZatoshiPerZEC is the base-unit scale (8 decimals).
	ZatoshiPerZEC = 100_000_000
	// MaxMoney is the total ZEC supply in zatoshi; no amount or fee may
	// exceed it.
	MaxMoney uint64 = 21_000_000 * ZatoshiPerZEC
)

const zecDecimals = 8

// FormatZEC renders a zatoshi amount as a decimal ZEC string with trailing
// zeros trimmed, e.g. 150000 -> "0.0015".
func FormatZEC(zatoshi uint64) string {
	whole := zatoshi / ZatoshiPerZEC
	frac := zatoshi % ZatoshiPerZEC
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%08d", frac), "0")
	return fmt.Sprintf("%d.%s", whole, fracStr)
}

// ParseZEC converts a decimal ZEC string to zatoshi. More than 8 fractional
// digits, negative amounts, and amounts above MaxMoney are rejected.
func ParseZEC(amount string) (uint64, error) {
	if amount == "" {
		return 0, fmt.Errorf("amount cannot be empty")
	}
	if strings.HasPrefix(amount, "-") {
		return 0, fmt.Errorf("amount cannot be negative: %s", amount)
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount format: %s", amount)
	}
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount format: %s", amount)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > zecDecimals {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, zecDecimals)
	}
	frac += strings.Repeat("0", zecDecimals-len(frac))

	var zatoshi uint64
	for _, c := range whole + frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount: %s", amount)
		}
		digit := uint64(c - '0')
		if zatoshi > (MaxMoney-digit)/10 {
			return 0, fmt.Errorf("amount %s exceeds the total ZEC supply", amount)
		}
		zatoshi = zatoshi*10 + digit
	}
	return zatoshi, nil
}
