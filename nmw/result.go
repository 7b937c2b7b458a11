package nmw

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// WARNINGS - Tagged by the component that raised them
// =============================================================================

// Component names the engine component that produced a warning or issue.
type Component string

const (
	ComponentRateResolver  Component = "rate_resolver"
	ComponentPRP           Component = "prp_calculator"
	ComponentAccommodation Component = "accommodation_offset"
	ComponentDeductions    Component = "deduction_evaluator"
	ComponentAllowances    Component = "allowance_premium"
	ComponentTronc         Component = "tronc_exclusion"
	ComponentIntegrator    Component = "integrator"
)

// Warning is a non-fatal finding surfaced alongside the result.
type Warning struct {
	Source   Component `json:"source"`
	Code     IssueCode `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Issue is a compliance problem contributing to a non-GREEN verdict.
type Issue struct {
	Code     IssueCode `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// =============================================================================
// FIX SUGGESTIONS - Quantified, templated remediation guidance
// =============================================================================

// SuggestionKind identifies the remediation template a suggestion came from.
type SuggestionKind string

const (
	SuggestArrearsTopUp        SuggestionKind = "ARREARS_TOP_UP"
	SuggestUrgentReview        SuggestionKind = "URGENT_REVIEW"
	SuggestHoursReview         SuggestionKind = "HOURS_REVIEW"
	SuggestRateBreakdown       SuggestionKind = "RATE_BREAKDOWN"
	SuggestIncreasePay         SuggestionKind = "INCREASE_PAY"
	SuggestReduceOffsets       SuggestionKind = "REDUCE_OFFSETS"
	SuggestCapOffsetCategory   SuggestionKind = "CAP_OFFSET_CATEGORY"
	SuggestDataClarification   SuggestionKind = "DATA_CLARIFICATION"
	SuggestMissingData         SuggestionKind = "MISSING_DATA"
	SuggestDataError           SuggestionKind = "DATA_ERROR"
	SuggestDeductionReview     SuggestionKind = "DEDUCTION_REVIEW"
	SuggestAccommodationReview SuggestionKind = "ACCOMMODATION_REVIEW"
	SuggestManualReview        SuggestionKind = "MANUAL_REVIEW"
	SuggestLowMargin           SuggestionKind = "LOW_MARGIN"
	SuggestComplianceConfirmed SuggestionKind = "COMPLIANCE_CONFIRMED"
)

// FixSuggestion is one quantified remediation step. Amount is present only
// when the template carries a currency figure; Priority orders suggestions
// for display (lower is more urgent).
type FixSuggestion struct {
	Kind     SuggestionKind   `json:"kind"`
	Message  string           `json:"message"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Priority int              `json:"priority"`
}
