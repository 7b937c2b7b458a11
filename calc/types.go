/*
Package calc implements the mid-level NMW compliance calculators: the pay
reference period calculator, the accommodation offset calculator, the
deduction evaluator, the allowance/premium processor, and the tronc
exclusion processor.

PURPOSE:
  Each calculator is a pure function of its inputs plus (where relevant)
  the shared classifier. None hold mutable state, none perform I/O, and all
  are safe to fan out concurrently over the same inputs.

SEE ALSO:
  - prp.go: Base effective rate and its own verdict
  - accommodation.go, deductions.go: Permitted-limit evaluation
  - allowances.go, tronc.go: Classifier-driven component processing
*/
package calc

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW INPUTS - Shapes handed over by ingestion collaborators
// =============================================================================

// OffsetCharge is one charge total from the offsets input.
type OffsetCharge struct {
	TotalCharge decimal.Decimal `json:"total_charge"`
}

// OffsetData carries the period's employer charges by category.
type OffsetData struct {
	Accommodation OffsetCharge `json:"accommodation"`
	Meals         OffsetCharge `json:"meals"`
	Transport     OffsetCharge `json:"transport"`
}

// DeductionData carries the period's deduction totals by category.
type DeductionData struct {
	Uniform  decimal.Decimal `json:"uniform_deduction"`
	Tools    decimal.Decimal `json:"tools_deduction"`
	Training decimal.Decimal `json:"training_deduction"`
	Other    decimal.Decimal `json:"other_deductions"`
}

// Total returns the sum across all deduction categories.
func (d DeductionData) Total() decimal.Decimal {
	return d.Uniform.Add(d.Tools).Add(d.Training).Add(d.Other)
}

// EnhancementData carries the period's pay enhancements.
type EnhancementData struct {
	Bonus        decimal.Decimal `json:"bonus"`
	Commission   decimal.Decimal `json:"commission"`
	Tips         decimal.Decimal `json:"tips"`
	Tronc        decimal.Decimal `json:"tronc"`
	ShiftPremium decimal.Decimal `json:"shift_premium"`
	Overtime     decimal.Decimal `json:"overtime"`
	HolidayPay   decimal.Decimal `json:"holiday_pay"`
}

// Total returns the sum of every enhancement field, tips and tronc
// included. The tronc processor is responsible for excluding those again.
func (e EnhancementData) Total() decimal.Decimal {
	return e.Bonus.Add(e.Commission).Add(e.Tips).Add(e.Tronc).
		Add(e.ShiftPremium).Add(e.Overtime).Add(e.HolidayPay)
}

// RawPayComponents is the free-form component name -> amount map.
type RawPayComponents map[string]decimal.Decimal

// NonZero returns a copy with zero-valued entries dropped. Classification
// ignores zero and missing amounts.
func (r RawPayComponents) NonZero() RawPayComponents {
	out := make(RawPayComponents, len(r))
	for name, v := range r {
		if v.IsZero() {
			continue
		}
		out[name] = v
	}
	return out
}

// =============================================================================
// PRP INPUT LISTS - Tagged or keyword-inferred offset/allowance entries
// =============================================================================

// OffsetCategory tags an offset entry for per-category daily limits.
type OffsetCategory string

const (
	OffsetAccommodation OffsetCategory = "accommodation"
	OffsetUniform       OffsetCategory = "uniform"
	OffsetMeals         OffsetCategory = "meals"
	OffsetDeductions    OffsetCategory = "deductions"
)

// OffsetEntry is one offset line. Category may be left empty, in which case
// it is inferred from keywords in the description.
type OffsetEntry struct {
	Description string          `json:"description"`
	Category    OffsetCategory  `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	DailyRate   decimal.Decimal `json:"daily_rate,omitempty"`
}

// AllowanceCategory tags an allowance entry for inclusion handling.
type AllowanceCategory string

const (
	AllowanceTronc   AllowanceCategory = "tronc"
	AllowancePremium AllowanceCategory = "premium"
	AllowanceBonus   AllowanceCategory = "bonus"
)

// AllowanceEntry is one allowance line. Category may be left empty, in
// which case it is inferred from keywords in the description.
type AllowanceEntry struct {
	Description string            `json:"description"`
	Category    AllowanceCategory `json:"category,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
}
