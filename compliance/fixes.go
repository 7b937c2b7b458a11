package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// FIX SUGGESTION GENERATOR - Quantified remediation from the RAG verdict
// =============================================================================

// FixInput carries the figures the generator quantifies from.
type FixInput struct {
	Verdict       Verdict
	EffectiveRate decimal.Decimal
	RequiredRate  decimal.Decimal
	HoursWorked   decimal.Decimal
}

// minActionableShortfall is the per-hour shortfall below which no arrears
// suggestion is produced.
var minActionableShortfall = nmw.MustDecimal("0.01")

// amberSuggestions maps each precondition flag to its remediation template.
var amberSuggestions = map[nmw.AmberFlag]struct {
	kind nmw.SuggestionKind
	msg  string
}{
	nmw.FlagZeroHoursWithPay:      {nmw.SuggestDataClarification, "Pay was recorded against zero hours; confirm the hours worked for this period with payroll"},
	nmw.FlagMissingAgeData:        {nmw.SuggestMissingData, "Worker age and date of birth are missing; the required rate cannot be resolved until one is provided"},
	nmw.FlagNegativeEffectiveRate: {nmw.SuggestDataError, "The computed effective rate is negative; offsets or deductions likely exceed pay - verify the source data"},
	nmw.FlagExcessiveDeductions:   {nmw.SuggestDeductionReview, "Deductions exceed half of pay for the period; review each deduction category against its permitted maximum"},
	nmw.FlagAccommodationOffsets:  {nmw.SuggestAccommodationReview, "Accommodation charges exceed the daily offset limit; review the charge against the statutory accommodation offset"},
}

// GenerateFixes produces the ordered suggestion list for a verdict.
//
// RED: an arrears top-up quantified as shortfall-per-hour x hours (only when
// the per-hour shortfall is at least 0.01), an urgent-review note above 20%
// shortfall, an hours-review note above 48 hours, and always a closing rate
// breakdown. AMBER: one suggestion per flag from a fixed template table.
// GREEN: a low-margin warning when the cushion is under 5% of the required
// rate, otherwise a compliance-confirmed note.
func GenerateFixes(in FixInput) []nmw.FixSuggestion {
	switch in.Verdict.Status {
	case nmw.StatusRed:
		return redFixes(in)
	case nmw.StatusAmber:
		return amberFixes(in)
	default:
		return greenFixes(in)
	}
}

func redFixes(in FixInput) []nmw.FixSuggestion {
	var out []nmw.FixSuggestion
	shortfall := in.RequiredRate.Sub(in.EffectiveRate)

	if shortfall.GreaterThanOrEqual(minActionableShortfall) {
		arrears := nmw.Round2(shortfall.Mul(in.HoursWorked))
		out = append(out, nmw.FixSuggestion{
			Kind:     nmw.SuggestArrearsTopUp,
			Message:  fmt.Sprintf("Add arrears top-up of %s for this period", nmw.FormatGBP(arrears)),
			Amount:   &arrears,
			Priority: 1,
		})
	}

	if in.RequiredRate.Sign() > 0 {
		shortPct := shortfall.Div(in.RequiredRate).Mul(decimal.NewFromInt(100))
		if shortPct.GreaterThan(decimal.NewFromInt(20)) {
			out = append(out, nmw.FixSuggestion{
				Kind:     nmw.SuggestUrgentReview,
				Message:  fmt.Sprintf("Shortfall is %s%% of the required rate; escalate this worker for urgent payroll review", shortPct.StringFixed(1)),
				Priority: len(out) + 1,
			})
		}
	}

	if in.HoursWorked.GreaterThan(decimal.NewFromInt(48)) {
		out = append(out, nmw.FixSuggestion{
			Kind:     nmw.SuggestHoursReview,
			Message:  fmt.Sprintf("%s hours recorded for the period; verify the hours figure covers a single pay reference period", in.HoursWorked.StringFixed(1)),
			Priority: len(out) + 1,
		})
	}

	out = append(out, nmw.FixSuggestion{
		Kind: nmw.SuggestRateBreakdown,
		Message: fmt.Sprintf("Effective rate %s against required rate %s over %s hours",
			nmw.FormatGBP(in.EffectiveRate), nmw.FormatGBP(in.RequiredRate), in.HoursWorked.StringFixed(1)),
		Priority: len(out) + 1,
	})
	return out
}

func amberFixes(in FixInput) []nmw.FixSuggestion {
	var out []nmw.FixSuggestion
	for _, flag := range in.Verdict.Flags {
		tpl, ok := amberSuggestions[flag]
		if !ok {
			tpl.kind = nmw.SuggestManualReview
			tpl.msg = fmt.Sprintf("Flag %q requires manual review before this result can be relied on", flag)
		}
		out = append(out, nmw.FixSuggestion{
			Kind:     tpl.kind,
			Message:  tpl.msg,
			Priority: len(out) + 1,
		})
	}
	return out
}

func greenFixes(in FixInput) []nmw.FixSuggestion {
	cushion := in.EffectiveRate.Sub(in.RequiredRate)
	margin := in.RequiredRate.Mul(nmw.MustDecimal("0.05"))
	if in.RequiredRate.Sign() > 0 && cushion.LessThan(margin) {
		return []nmw.FixSuggestion{{
			Kind: nmw.SuggestLowMargin,
			Message: fmt.Sprintf("Effective rate %s is within 5%% of the required rate %s; a small pay change could cause a breach",
				nmw.FormatGBP(in.EffectiveRate), nmw.FormatGBP(in.RequiredRate)),
			Priority: 1,
		}}
	}
	return []nmw.FixSuggestion{{
		Kind: nmw.SuggestComplianceConfirmed,
		Message: fmt.Sprintf("Pay complies with the required rate: effective %s against required %s",
			nmw.FormatGBP(in.EffectiveRate), nmw.FormatGBP(in.RequiredRate)),
		Priority: 1,
	}}
}
