// Package money fixes the currency arithmetic rules for the ledger.
// All amounts are decimal with two fractional digits; every
// multiplicative step rounds back to two digits before the next step so
// results are reproducible regardless of evaluation order.
package money

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to the currency's minor unit.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsNegligible reports whether an amount is below the minor-unit
// resolution and should be treated as zero.
func IsNegligible(d decimal.Decimal) bool {
	return d.Abs().LessThan(decimal.New(1, -2))
}

// ToCents converts a 2-decimal amount to integer minor units for
// storage. Amounts are rounded first so the conversion is exact.
func ToCents(d decimal.Decimal) int64 {
	return Round2(d).Shift(2).IntPart()
}

// FromCents converts stored minor units back to a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// MustParse parses a stored decimal string, treating malformed or empty
// input as zero. Configuration values default rather than error.
func MustParse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
