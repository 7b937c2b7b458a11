package compliance

import (
	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/calc"
	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// REQUEST - One worker's calculation input
// =============================================================================

// Request is the full input for one (worker, pay period) calculation.
// Offsets, deductions, enhancements and components may all be empty.
type Request struct {
	Worker       nmw.Worker            `json:"worker" validate:"required"`
	Period       nmw.PayPeriod         `json:"pay_period" validate:"required"`
	Offsets      calc.OffsetData       `json:"offsets"`
	Deductions   calc.DeductionData    `json:"deductions"`
	Enhancements calc.EnhancementData  `json:"enhancements"`
	Components   calc.RawPayComponents `json:"components,omitempty"`
}

// =============================================================================
// RESULT - Merged output of all calculators
// =============================================================================

// Breakdown mirrors each sub-calculator's result for reporting.
type Breakdown struct {
	PRP           *calc.PRPResult              `json:"prp,omitempty"`
	Accommodation *calc.AccommodationResult    `json:"accommodation,omitempty"`
	Deductions    *calc.DeductionResult        `json:"deductions,omitempty"`
	Allowances    *calc.AllowancePremiumResult `json:"allowances,omitempty"`
	Tronc         *calc.TroncResult            `json:"tronc,omitempty"`
}

// ComplianceResult is the engine's authoritative output for one worker.
type ComplianceResult struct {
	WorkerID    nmw.WorkerID `json:"worker_id"`
	PayPeriodID nmw.PeriodID `json:"pay_period_id"`

	EffectiveHourlyRate decimal.Decimal `json:"effective_hourly_rate"`
	RequiredHourlyRate  decimal.Decimal `json:"required_hourly_rate"`
	NetPayForNMW        decimal.Decimal `json:"net_pay_for_nmw"`

	Status   nmw.RAGStatus   `json:"status"`
	Severity *nmw.Severity   `json:"severity,omitempty"`
	Reason   string          `json:"reason"`
	Flags    []nmw.AmberFlag `json:"flags,omitempty"`
	Score    int             `json:"score"`

	Breakdown   Breakdown           `json:"breakdown"`
	Warnings    []nmw.Warning       `json:"warnings,omitempty"`
	Suggestions []nmw.FixSuggestion `json:"suggestions,omitempty"`
}

// =============================================================================
// OUTCOME - Tagged success/failure result
// =============================================================================

// Outcome is the discriminated result of one worker's calculation. A failed
// outcome never aborts sibling calculations in a batch.
type Outcome struct {
	Success     bool              `json:"success"`
	WorkerID    nmw.WorkerID      `json:"worker_id"`
	PayPeriodID nmw.PeriodID      `json:"pay_period_id"`
	Result      *ComplianceResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`

	err error
}

// Err returns the underlying error of a failed outcome, nil on success.
func (o Outcome) Err() error { return o.err }

func succeed(r *ComplianceResult) Outcome {
	return Outcome{Success: true, WorkerID: r.WorkerID, PayPeriodID: r.PayPeriodID, Result: r}
}

func fail(workerID nmw.WorkerID, periodID nmw.PeriodID, err error) Outcome {
	return Outcome{
		Success:     false,
		WorkerID:    workerID,
		PayPeriodID: periodID,
		Error:       err.Error(),
		err:         err,
	}
}
