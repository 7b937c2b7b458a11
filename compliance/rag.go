/*
Package compliance orchestrates the full NMW calculation for a worker: it
fans out the mid-level calculators, merges their outputs into one net-pay
figure, resolves the canonical RAG status, and generates quantified fix
suggestions. Batch processing over many workers runs through a bounded
worker pool.

STATUS AUTHORITY:
  There is exactly one user-facing status decision in this engine: the
  resolver in this file. The integrator computes scores and breakdowns, but
  ComplianceResult.Status always comes from ResolveRAG.
*/
package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// RAG STATUS RESOLVER - Amber flags first, then the rate comparison
// =============================================================================

// RAGInput carries everything the resolver inspects.
type RAGInput struct {
	EffectiveRate decimal.Decimal
	RequiredRate  decimal.Decimal
	HoursWorked   decimal.Decimal
	TotalPay      decimal.Decimal
	AgeKnown      bool

	// DeductionRatio is total deductions over total pay.
	DeductionRatio decimal.Decimal

	// AccommodationViolation is set when the accommodation sub-result
	// carries any over-limit flags.
	AccommodationViolation bool

	// ExtraFlags lets the integrator inject degradations detected upstream
	// (e.g. the rate table load deadline expiring).
	ExtraFlags []nmw.AmberFlag
}

// Verdict is the canonical classification.
type Verdict struct {
	Status   nmw.RAGStatus   `json:"status"`
	Severity *nmw.Severity   `json:"severity,omitempty"`
	Reason   string          `json:"reason"`
	Flags    []nmw.AmberFlag `json:"flags,omitempty"`
}

var flagReasons = map[nmw.AmberFlag]string{
	nmw.FlagZeroHoursWithPay:      "pay was reported with zero hours worked",
	nmw.FlagMissingAgeData:        "worker age and date of birth are both missing",
	nmw.FlagNegativeEffectiveRate: "computed effective hourly rate is negative",
	nmw.FlagExcessiveDeductions:   "deductions exceed half of total pay",
	nmw.FlagAccommodationOffsets:  "accommodation charges exceed the daily offset limit",
	nmw.FlagRateTableUnavailable:  "the required rate could not be resolved in time",
}

// ResolveRAG produces the canonical tri-state verdict.
//
// Precondition amber flags are checked before any rate comparison; the
// presence of any flag yields AMBER with that flag's reason and the rate
// comparison is skipped ("fail open to manual review"). Otherwise the
// verdict is GREEN when effective >= required, RED otherwise with severity
// graded by the shortfall percentage.
func ResolveRAG(in RAGInput) Verdict {
	flags := amberFlags(in)
	if len(flags) > 0 {
		return Verdict{
			Status: nmw.StatusAmber,
			Reason: flagReasons[flags[0]],
			Flags:  flags,
		}
	}

	if in.EffectiveRate.GreaterThanOrEqual(in.RequiredRate) {
		return Verdict{
			Status: nmw.StatusGreen,
			Reason: fmt.Sprintf("effective rate %s meets required rate %s",
				nmw.FormatGBP(in.EffectiveRate), nmw.FormatGBP(in.RequiredRate)),
		}
	}

	shortPct := in.RequiredRate.Sub(in.EffectiveRate).Div(in.RequiredRate).Mul(decimal.NewFromInt(100))
	sev := severityFor(shortPct)
	return Verdict{
		Status:   nmw.StatusRed,
		Severity: &sev,
		Reason: fmt.Sprintf("effective rate %s is %s%% below required rate %s",
			nmw.FormatGBP(in.EffectiveRate), shortPct.StringFixed(1), nmw.FormatGBP(in.RequiredRate)),
	}
}

func amberFlags(in RAGInput) []nmw.AmberFlag {
	var flags []nmw.AmberFlag
	if in.HoursWorked.Sign() <= 0 && in.TotalPay.Sign() > 0 {
		flags = append(flags, nmw.FlagZeroHoursWithPay)
	}
	if !in.AgeKnown {
		flags = append(flags, nmw.FlagMissingAgeData)
	}
	if in.EffectiveRate.IsNegative() {
		flags = append(flags, nmw.FlagNegativeEffectiveRate)
	}
	if in.DeductionRatio.GreaterThan(nmw.MustDecimal("0.5")) {
		flags = append(flags, nmw.FlagExcessiveDeductions)
	}
	if in.AccommodationViolation {
		flags = append(flags, nmw.FlagAccommodationOffsets)
	}
	flags = append(flags, in.ExtraFlags...)
	return flags
}

func severityFor(shortfallPct decimal.Decimal) nmw.Severity {
	switch {
	case shortfallPct.GreaterThan(decimal.NewFromInt(20)):
		return nmw.SeverityCritical
	case shortfallPct.GreaterThan(decimal.NewFromInt(10)):
		return nmw.SeverityHigh
	case shortfallPct.GreaterThan(decimal.NewFromInt(5)):
		return nmw.SeverityMedium
	default:
		return nmw.SeverityLow
	}
}
