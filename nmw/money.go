/*
Package nmw provides the core types for UK National Minimum Wage compliance
calculations.

PURPOSE:
  This package contains the shared vocabulary used by every calculator in the
  engine: money helpers, calendar dates, workers, pay reference periods, the
  RAG status taxonomy, typed warnings, and the engine's error classes.

DESIGN PRINCIPLES:
  1. Precision: All money and rate arithmetic uses decimal.Decimal to avoid
     floating-point errors. Rounding happens only at reporting boundaries.
  2. Purity: Nothing in this package performs I/O or holds mutable state.
  3. Machine-readable outcomes: Issue codes and amber flags form a fixed
     taxonomy so downstream reporting never re-derives engine logic.

SEE ALSO:
  - period.go: Pay reference periods and PRP type derivation
  - errors.go: Validation vs. infrastructure error split
  - result.go: Warnings, issues, and fix suggestions
*/
package nmw

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY HELPERS - All amounts are GBP, exact decimal
// =============================================================================

// RoundingPlaces is the reporting precision for currency values (pence).
const RoundingPlaces = 2

// Money constructs an exact decimal amount from a float literal.
// Use only for literals and test fixtures; parsed input should go through
// decimal.NewFromString.
func Money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Round2 rounds to the reporting precision (2 decimal places, half up).
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(RoundingPlaces) }

// SafeDiv divides a by b, returning zero when b is zero or negative.
// Effective-rate formulas define rate = 0 for non-positive hours.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.Sign() <= 0 {
		return decimal.Zero
	}
	return a.Div(b)
}

// RatioOf returns part/whole, or zero when whole is zero.
func RatioOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole)
}

// FormatGBP renders an amount as a currency string with two decimal places,
// e.g. "£57.60". All user-facing suggestion text uses this format.
func FormatGBP(d decimal.Decimal) string {
	return "£" + d.StringFixed(RoundingPlaces)
}

// MustDecimal parses a decimal string, returning zero on failure.
// Intended for table literals where the input is author-controlled.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
