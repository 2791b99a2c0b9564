// Package amount converts between base units and human-readable token
// amounts. The ledger itself only ever holds base-unit integers; everything
// here is a lossy presentation concern kept out of the core.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	ethmath "github.com/ethereum/go-ethereum/common/math"
)

// BaseUnitExponent is the number of base units in one token, as a power of
// ten. One token equals 10^24 base units.
const BaseUnitExponent = 24

// displayDecimals is the precision of the human-readable form. Amounts are
// truncated, not rounded, to this many decimal places.
const displayDecimals = 4

var (
	baseUnitsPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(BaseUnitExponent), nil)
	// displayDivisor scales a base-unit amount down to an integer carrying
	// displayDecimals decimal places of the token amount.
	displayDivisor = new(big.Int).Exp(big.NewInt(10), big.NewInt(BaseUnitExponent-displayDecimals), nil)
	displayScale   = new(big.Int).Exp(big.NewInt(10), big.NewInt(displayDecimals), nil)
)

// ToHuman renders a base-unit amount as a decimal token string with up to
// four decimal places, truncating any finer precision.
//
// Examples:
//
//	3_193_264_587_249_763_651_824_729 → "3.1932"
//	10_000_000_000_000_000_000_000    → "0.01"
//	700_000_000_000_000_000_000       → "0.0007"
func ToHuman(baseUnits *big.Int) string {
	scaled := new(big.Int).Quo(baseUnits, displayDivisor)
	whole, frac := new(big.Int).QuoRem(scaled, displayScale, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", displayDecimals, frac.String()), "0")
	return whole.String() + "." + fracStr
}

// Parse converts a human-readable token amount into base units. Commas,
// underscores and surrounding whitespace are ignored, as is a trailing
// alphabetic unit suffix. At most 24 fractional digits are accepted; the
// amount must be non-negative.
func Parse(s string) (*big.Int, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == '_' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	// Drop an optional unit suffix ("0.3 TOK" and friends).
	if i := strings.IndexFunc(cleaned, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i >= 0 {
		cleaned = strings.TrimSpace(cleaned[:i])
	}

	if cleaned == "" {
		return nil, fmt.Errorf("empty amount")
	}

	whole, frac, _ := strings.Cut(cleaned, ".")
	if strings.Contains(frac, ".") {
		return nil, fmt.Errorf("malformed amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > BaseUnitExponent {
		return nil, fmt.Errorf("amount %q exceeds base-unit precision", s)
	}

	wholeUnits, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", s)
	}
	wholeUnits.Mul(wholeUnits, baseUnitsPerToken)

	if frac != "" {
		fracUnits, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("malformed amount %q", s)
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(BaseUnitExponent-len(frac))), nil)
		wholeUnits.Add(wholeUnits, fracUnits.Mul(fracUnits, scale))
	}

	return wholeUnits, nil
}

// MustParse is Parse for static values; it panics on malformed input.
func MustParse(s string) *big.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromBaseUnits parses a raw base-unit integer string, decimal or 0x-prefixed
// hex. Negative amounts are rejected.
func FromBaseUnits(s string) (*big.Int, error) {
	v, ok := ethmath.ParseBig256(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("malformed base-unit amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative base-unit amount %q", s)
	}
	return v, nil
}
