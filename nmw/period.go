package nmw

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAY REFERENCE PERIOD - The interval over which compliance is assessed
// =============================================================================

type PeriodID string

// PayPeriod is a worker's pay reference period: the date range plus the raw
// hours and base pay totals reported for it. Immutable per calculation call.
type PayPeriod struct {
	ID          PeriodID        `json:"id" validate:"required"`
	Start       Date            `json:"start"`
	End         Date            `json:"end"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
	TotalPay    decimal.Decimal `json:"total_pay"`
}

// Validate checks the structural invariants of a period.
// Start must be strictly before End.
func (p PayPeriod) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "pay_period.id", Reason: "missing pay period identifier"}
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return &ValidationError{Field: "pay_period", Reason: "missing start or end date"}
	}
	if !p.Start.Before(p.End) {
		return &ValidationError{Field: "pay_period", Reason: "start date must be before end date"}
	}
	if p.HoursWorked.IsNegative() {
		return &ValidationError{Field: "pay_period.hours_worked", Reason: "hours worked cannot be negative"}
	}
	return nil
}

// Days returns the inclusive day count of the period.
func (p PayPeriod) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// =============================================================================
// PRP TYPE - Derived from the period's day count
// =============================================================================

// PRPType classifies a pay reference period by length.
type PRPType string

const (
	PRPWeekly    PRPType = "weekly"
	PRPMonthly   PRPType = "monthly"
	PRPQuarterly PRPType = "quarterly"
	PRPAnnual    PRPType = "annual"
)

// PRPType derives the period classification from day-count thresholds:
// up to 7 days is weekly, up to 31 monthly, up to 91 quarterly, else annual.
func (p PayPeriod) PRPType() PRPType {
	switch days := p.Days(); {
	case days <= 7:
		return PRPWeekly
	case days <= 31:
		return PRPMonthly
	case days <= 91:
		return PRPQuarterly
	default:
		return PRPAnnual
	}
}

// Bounds returns the normalized period boundary. Weekly periods are widened
// to the Monday–Sunday window containing the start date; all other period
// types keep their reported boundaries.
func (p PayPeriod) Bounds() (Date, Date) {
	if p.PRPType() != PRPWeekly {
		return p.Start, p.End
	}
	monday := p.Start
	for monday.Weekday() != time.Monday {
		monday = monday.AddDays(-1)
	}
	return monday, monday.AddDays(6)
}
