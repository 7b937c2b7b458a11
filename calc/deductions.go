package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// DEDUCTION EVALUATOR - Uniform/tools/training/other against permitted limits
// =============================================================================

// DeductionCategory names one of the four independently evaluated categories.
type DeductionCategory string

const (
	DeductionUniform  DeductionCategory = "uniform"
	DeductionTools    DeductionCategory = "tools"
	DeductionTraining DeductionCategory = "training"
	DeductionOther    DeductionCategory = "other"
)

// DeductionLimits configures the maximum permitted amount per category.
// The statutory default is zero for every category: these deductions may
// not reduce NMW pay at all.
type DeductionLimits struct {
	Uniform  decimal.Decimal `json:"uniform"`
	Tools    decimal.Decimal `json:"tools"`
	Training decimal.Decimal `json:"training"`
	Other    decimal.Decimal `json:"other"`
}

// CategoryResult is the per-category evaluation.
type CategoryResult struct {
	Category   DeductionCategory `json:"category"`
	Amount     decimal.Decimal   `json:"amount"`
	MaxAllowed decimal.Decimal   `json:"max_allowed"`
	Excess     decimal.Decimal   `json:"excess"`
	Compliant  bool              `json:"compliant"`
}

// DeductionResult aggregates the four category evaluations.
type DeductionResult struct {
	Categories      []CategoryResult    `json:"categories"`
	Total           decimal.Decimal     `json:"total"`
	CompliantSum    decimal.Decimal     `json:"compliant_sum"`
	NonCompliantSum decimal.Decimal     `json:"non_compliant_sum"`
	ExcessSum       decimal.Decimal     `json:"excess_sum"`
	ComplianceRate  decimal.Decimal     `json:"compliance_rate"`
	Status          nmw.RAGStatus       `json:"status"`
	Score           int                 `json:"score"`
	Issues          []nmw.Issue         `json:"issues,omitempty"`
	Recommendations []nmw.FixSuggestion `json:"recommendations,omitempty"`
}

// HasExcess reports whether any category exceeded its permitted maximum.
func (r DeductionResult) HasExcess() bool { return r.ExcessSum.Sign() > 0 }

// DeductionEvaluator validates deduction amounts against permitted limits.
type DeductionEvaluator struct {
	Limits DeductionLimits
}

func NewDeductionEvaluator(limits DeductionLimits) *DeductionEvaluator {
	return &DeductionEvaluator{Limits: limits}
}

// Evaluate checks each category independently: excess is the amount above
// the permitted maximum, a category is compliant when its excess is zero.
// The compliance rate is the compliant share of the total (100 when there
// are no deductions at all). GREEN with no excess, AMBER at 80%+ compliant,
// RED below.
func (e *DeductionEvaluator) Evaluate(d DeductionData) (DeductionResult, error) {
	entries := []struct {
		cat    DeductionCategory
		amount decimal.Decimal
		max    decimal.Decimal
	}{
		{DeductionUniform, d.Uniform, e.Limits.Uniform},
		{DeductionTools, d.Tools, e.Limits.Tools},
		{DeductionTraining, d.Training, e.Limits.Training},
		{DeductionOther, d.Other, e.Limits.Other},
	}

	var res DeductionResult
	for _, ent := range entries {
		if ent.amount.IsNegative() {
			return DeductionResult{}, &nmw.ValidationError{
				Field:  fmt.Sprintf("deductions.%s", ent.cat),
				Reason: "deduction cannot be negative",
			}
		}
		excess := ent.amount.Sub(ent.max)
		if excess.IsNegative() {
			excess = decimal.Zero
		}
		cr := CategoryResult{
			Category:   ent.cat,
			Amount:     ent.amount,
			MaxAllowed: ent.max,
			Excess:     nmw.Round2(excess),
			Compliant:  excess.IsZero(),
		}
		res.Categories = append(res.Categories, cr)

		res.Total = res.Total.Add(ent.amount)
		res.ExcessSum = res.ExcessSum.Add(cr.Excess)
		if cr.Compliant {
			res.CompliantSum = res.CompliantSum.Add(ent.amount)
		} else {
			res.NonCompliantSum = res.NonCompliantSum.Add(ent.amount)

			sev := nmw.SeverityMedium
			if cr.Excess.GreaterThan(cr.MaxAllowed) {
				sev = nmw.SeverityHigh
			}
			res.Issues = append(res.Issues, nmw.Issue{
				Code:     nmw.IssueExcessiveDeductions,
				Severity: sev,
				Message: fmt.Sprintf("%s deduction of %s exceeds permitted maximum %s by %s",
					cr.Category, nmw.FormatGBP(cr.Amount), nmw.FormatGBP(cr.MaxAllowed), nmw.FormatGBP(cr.Excess)),
			})
			res.Recommendations = append(res.Recommendations, nmw.FixSuggestion{
				Kind: nmw.SuggestDeductionReview,
				Message: fmt.Sprintf("Reduce %s deduction to the permitted maximum of %s",
					cr.Category, nmw.FormatGBP(cr.MaxAllowed)),
				Amount:   decimalPtr(cr.Excess),
				Priority: len(res.Recommendations) + 1,
			})
		}
	}

	if res.Total.IsZero() {
		res.ComplianceRate = decimal.NewFromInt(100)
	} else {
		res.ComplianceRate = res.CompliantSum.Div(res.Total).Mul(decimal.NewFromInt(100))
	}
	res.Score = int(res.ComplianceRate.Round(0).IntPart())

	switch {
	case res.ExcessSum.IsZero():
		res.Status = nmw.StatusGreen
	case res.ComplianceRate.GreaterThanOrEqual(decimal.NewFromInt(80)):
		res.Status = nmw.StatusAmber
	default:
		res.Status = nmw.StatusRed
	}
	return res, nil
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
