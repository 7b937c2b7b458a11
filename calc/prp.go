/*
prp.go - Pay reference period calculator

PURPOSE:
  Computes the base effective hourly rate for a pay reference period and a
  standalone compliance verdict for it. This is the "simple view" of a
  worker's period: total pay, hours, a list of offsets, and a list of
  allowances, without the full component-classification machinery.

OFFSETS AND ALLOWANCES:
  Offset entries carry an explicit category tag or are inferred from
  keywords in their description (accommodation / uniform / meals /
  deductions). Each category has a daily limit: accommodation is
  configurable (statutory default 9.99/day), everything else permits no
  offset at all. Entries whose daily rate exceeds their category limit are
  flagged.

  Allowance entries are tagged or inferred as tronc / premium / bonus.
  Tronc is excluded from NMW-eligible pay; premium and bonus count.

VERDICT:
  effective = (totalPay - totalOffsets + totalAllowances) / totalHours
  GREEN  when effective >= required
  AMBER  when effective is within 2% below required
  RED    otherwise
*/
package calc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// PRPInput bundles everything the period calculator needs.
type PRPInput struct {
	Period       nmw.PayPeriod
	RequiredRate decimal.Decimal
	Offsets      []OffsetEntry
	Allowances   []AllowanceEntry
}

// OffsetFlag marks one entry whose daily rate exceeds its category limit.
type OffsetFlag struct {
	Category    OffsetCategory  `json:"category"`
	Description string          `json:"description"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	DailyLimit  decimal.Decimal `json:"daily_limit"`
	Amount      decimal.Decimal `json:"amount"`
}

// PRPResult is the period calculator's own verdict.
type PRPResult struct {
	PRPType         nmw.PRPType         `json:"prp_type"`
	Days            int                 `json:"days"`
	RequiredRate    decimal.Decimal     `json:"required_rate"`
	EffectiveRate   decimal.Decimal     `json:"effective_rate"`
	TotalPay        decimal.Decimal     `json:"total_pay"`
	TotalOffsets    decimal.Decimal     `json:"total_offsets"`
	TotalAllowances decimal.Decimal     `json:"total_allowances"`
	TroncExcluded   decimal.Decimal     `json:"tronc_excluded"`
	Flags           []OffsetFlag        `json:"flags,omitempty"`
	Status          nmw.RAGStatus       `json:"status"`
	Score           int                 `json:"score"`
	Issues          []nmw.Issue         `json:"issues,omitempty"`
	Suggestions     []nmw.FixSuggestion `json:"suggestions,omitempty"`
}

// =============================================================================
// CALCULATOR
// =============================================================================

// PRPCalculator computes the base effective hourly rate for a period.
type PRPCalculator struct {
	AccommodationDailyLimit decimal.Decimal
	Tolerance               decimal.Decimal // AMBER band below required, as a ratio
}

func NewPRPCalculator(accommodationDailyLimit decimal.Decimal) *PRPCalculator {
	if accommodationDailyLimit.Sign() <= 0 {
		accommodationDailyLimit = DefaultAccommodationDailyLimit
	}
	return &PRPCalculator{
		AccommodationDailyLimit: accommodationDailyLimit,
		Tolerance:               nmw.MustDecimal("0.02"),
	}
}

// Calculate produces the period verdict. The effective rate is zero when
// hours are not positive; the caller degrades that case to AMBER through
// the canonical status resolver.
func (c *PRPCalculator) Calculate(in PRPInput) (PRPResult, error) {
	if err := in.Period.Validate(); err != nil {
		return PRPResult{}, err
	}

	days := in.Period.Days()
	res := PRPResult{
		PRPType:      in.Period.PRPType(),
		Days:         days,
		RequiredRate: in.RequiredRate,
		TotalPay:     in.Period.TotalPay,
	}

	for _, off := range in.Offsets {
		cat := off.Category
		if cat == "" {
			cat = inferOffsetCategory(off.Description)
		}
		res.TotalOffsets = res.TotalOffsets.Add(off.Amount)

		limit := c.offsetDailyLimit(cat)
		daily := off.DailyRate
		if daily.Sign() <= 0 {
			daily = off.Amount.Div(decimal.NewFromInt(int64(days)))
		}
		if daily.GreaterThan(limit) {
			res.Flags = append(res.Flags, OffsetFlag{
				Category:    cat,
				Description: off.Description,
				DailyRate:   nmw.Round2(daily),
				DailyLimit:  limit,
				Amount:      off.Amount,
			})
		}
	}

	for _, al := range in.Allowances {
		cat := al.Category
		if cat == "" {
			cat = inferAllowanceCategory(al.Description)
		}
		if cat == AllowanceTronc {
			res.TroncExcluded = res.TroncExcluded.Add(al.Amount)
			continue
		}
		res.TotalAllowances = res.TotalAllowances.Add(al.Amount)
	}

	net := in.Period.TotalPay.Sub(res.TotalOffsets).Add(res.TotalAllowances)
	res.EffectiveRate = nmw.SafeDiv(net, in.Period.HoursWorked)

	res.Status = c.verdict(res.EffectiveRate, in.RequiredRate)
	res.Score = c.score(res, in)
	res.Issues = c.issues(res)
	res.Suggestions = c.suggestions(res, in)
	return res, nil
}

func (c *PRPCalculator) offsetDailyLimit(cat OffsetCategory) decimal.Decimal {
	if cat == OffsetAccommodation {
		return c.AccommodationDailyLimit
	}
	// Uniform, meals and general deductions permit no offset.
	return decimal.Zero
}

func (c *PRPCalculator) verdict(effective, required decimal.Decimal) nmw.RAGStatus {
	if required.Sign() <= 0 || effective.GreaterThanOrEqual(required) {
		return nmw.StatusGreen
	}
	floor := required.Mul(decimal.NewFromInt(1).Sub(c.Tolerance))
	if effective.GreaterThanOrEqual(floor) {
		return nmw.StatusAmber
	}
	return nmw.StatusRed
}

// score starts at 100 and subtracts capped penalties: up to 50 points for
// the rate shortfall, 10 points per flagged offset entry up to 30.
func (c *PRPCalculator) score(res PRPResult, in PRPInput) int {
	score := decimal.NewFromInt(100)

	if in.RequiredRate.Sign() > 0 && res.EffectiveRate.LessThan(in.RequiredRate) {
		shortPct := in.RequiredRate.Sub(res.EffectiveRate).Div(in.RequiredRate).Mul(decimal.NewFromInt(100))
		if shortPct.GreaterThan(decimal.NewFromInt(50)) {
			shortPct = decimal.NewFromInt(50)
		}
		score = score.Sub(shortPct)
	}

	flagPenalty := 10 * len(res.Flags)
	if flagPenalty > 30 {
		flagPenalty = 30
	}
	score = score.Sub(decimal.NewFromInt(int64(flagPenalty)))

	n := int(score.Round(0).IntPart())
	if n < 0 {
		n = 0
	}
	return n
}

func (c *PRPCalculator) issues(res PRPResult) []nmw.Issue {
	var issues []nmw.Issue
	if res.RequiredRate.Sign() > 0 && res.EffectiveRate.LessThan(res.RequiredRate) {
		issues = append(issues, nmw.Issue{
			Code:     nmw.IssueRateBelowMinimum,
			Severity: nmw.SeverityHigh,
			Message: fmt.Sprintf("effective hourly rate %s below required %s",
				nmw.FormatGBP(res.EffectiveRate), nmw.FormatGBP(res.RequiredRate)),
		})
	}

	seen := make(map[OffsetCategory]bool, 4)
	for _, f := range res.Flags {
		if seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		code := nmw.IssueExcessiveDeductions
		if f.Category == OffsetAccommodation {
			code = nmw.IssueAccommodationExceeded
		}
		issues = append(issues, nmw.Issue{
			Code:     code,
			Severity: nmw.SeverityMedium,
			Message: fmt.Sprintf("%s offset daily rate %s exceeds the %s/day limit",
				f.Category, nmw.FormatGBP(f.DailyRate), nmw.FormatGBP(f.DailyLimit)),
		})
	}
	return issues
}

// suggestions are ordered: raise pay first, then the offset alternative,
// then one cap suggestion per flagged category.
func (c *PRPCalculator) suggestions(res PRPResult, in PRPInput) []nmw.FixSuggestion {
	var out []nmw.FixSuggestion

	if in.RequiredRate.Sign() > 0 && res.EffectiveRate.LessThan(in.RequiredRate) {
		shortTotal := nmw.Round2(in.RequiredRate.Sub(res.EffectiveRate).Mul(in.Period.HoursWorked))
		out = append(out, nmw.FixSuggestion{
			Kind:     nmw.SuggestIncreasePay,
			Message:  fmt.Sprintf("Increase pay for the period by %s to reach the required rate", nmw.FormatGBP(shortTotal)),
			Amount:   decimalPtr(shortTotal),
			Priority: 1,
		})
		if res.TotalOffsets.Sign() > 0 {
			out = append(out, nmw.FixSuggestion{
				Kind:     nmw.SuggestReduceOffsets,
				Message:  fmt.Sprintf("Alternatively reduce offsets by %s for the period", nmw.FormatGBP(shortTotal)),
				Amount:   decimalPtr(shortTotal),
				Priority: 2,
			})
		}
	}

	seen := make(map[OffsetCategory]bool, 4)
	for _, f := range res.Flags {
		if seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		out = append(out, nmw.FixSuggestion{
			Kind: nmw.SuggestCapOffsetCategory,
			Message: fmt.Sprintf("Cap the %s offset at its limit of %s/day",
				f.Category, nmw.FormatGBP(f.DailyLimit)),
			Priority: len(out) + 1,
		})
	}
	return out
}

// =============================================================================
// CATEGORY INFERENCE - Keyword matching on free-text descriptions
// =============================================================================

func inferOffsetCategory(desc string) OffsetCategory {
	d := strings.ToLower(desc)
	switch {
	case containsAny(d, "accommodation", "housing", "lodging", "rent", "room"):
		return OffsetAccommodation
	case containsAny(d, "uniform", "clothing", "workwear"):
		return OffsetUniform
	case containsAny(d, "meal", "food", "canteen", "lunch"):
		return OffsetMeals
	default:
		return OffsetDeductions
	}
}

func inferAllowanceCategory(desc string) AllowanceCategory {
	d := strings.ToLower(desc)
	switch {
	case containsAny(d, "tronc", "tip", "gratuity", "service charge"):
		return AllowanceTronc
	case containsAny(d, "premium", "overtime", "shift", "night", "weekend"):
		return AllowancePremium
	default:
		return AllowanceBonus
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
