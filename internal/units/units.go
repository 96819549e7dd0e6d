// Package units converts between human decimal strings and fixed-point
// integers scaled by 10^decimals.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAmount is returned for strings that are not non-negative decimals.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	// One is 10^18, the scale of 18-decimal tokens.
	One = Pow10(18)
	// MaxUint256 is used for unlimited approvals.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Pow10 returns 10^n.
func Pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// splitDecimal validates s as digits with an optional single '.' and returns
// the integer and fraction digit strings. At least one digit is required.
func splitDecimal(s string) (whole, frac string, err error) {
	s = strings.TrimSpace(s)
	whole, frac, _ = strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
		}
	}
	return whole, frac, nil
}

// ParseUnits parses a non-negative decimal string into an integer scaled by
// 10^decimals. Digits beyond the scale are rounded half-up.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("negative decimals %d", decimals)
	}
	whole, frac, err := splitDecimal(s)
	if err != nil {
		return nil, err
	}
	roundUp := false
	if len(frac) > decimals {
		roundUp = frac[decimals] >= '5'
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	v, ok := new(big.Int).SetString("0"+whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if roundUp {
		v.Add(v, big.NewInt(1))
	}
	return v, nil
}

// ParseWholeUnits keeps only the integer part of s, discarding any fraction
// without rounding, and scales it by 10^decimals.
func ParseWholeUnits(s string, decimals int) (*big.Int, error) {
	whole, _, err := splitDecimal(s)
	if err != nil {
		return nil, err
	}
	return ParseUnits("0"+whole, decimals)
}

// FormatUnits renders v / 10^decimals without trailing fractional zeros.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	digits := new(big.Int).Abs(v).String()
	if decimals > 0 {
		if len(digits) <= decimals {
			digits = strings.Repeat("0", decimals-len(digits)+1) + digits
		}
		i := len(digits) - decimals
		whole, frac := digits[:i], strings.TrimRight(digits[i:], "0")
		digits = whole
		if frac != "" {
			digits += "." + frac
		}
	}
	if neg {
		return "-" + digits
	}
	return digits
}
