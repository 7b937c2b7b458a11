/*
integrator.go - Fan-out/fan-in orchestration for one worker's calculation

PURPOSE:
  Loads the rate table snapshot once per call, resolves the required rate,
  fans the four mutually independent calculators out concurrently, and
  merges their outputs into a single net-pay figure and ComplianceResult.

NET PAY MERGE:
  netPayForNMW = basePay
               + allowances included + premium basic portions
               + total enhancements
               - total deductions
               - tronc excluded
  effectiveRate = (netPayForNMW - totalOffsets) / baseHours   (0 if hours <= 0)

  Enhancements are summed in full and the tronc processor then excludes the
  tip/tronc fields again, so tips are never double-subtracted: raw pay
  components classified as tips were never added in the first place (the
  allowance processor reports them as excluded without counting them).

FAILURE POLICY:
  - Caller-input validation failures fail this worker's outcome only.
  - Rate-table parse failures are infrastructure errors and fail the worker.
  - A rate-table load deadline expiry degrades the verdict to AMBER with
    the rate_table_unavailable flag instead of failing.
  - A panic in one fanned-out calculator is contained in its slot; the
    siblings still complete.
*/
package compliance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/calc"
	"github.com/warp/compliance-engine/classify"
	"github.com/warp/compliance-engine/nmw"
	"github.com/warp/compliance-engine/rates"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs compliance calculations against one rate-table source and one
// classification rule table. It holds no per-calculation state and is safe
// for concurrent use.
type Engine struct {
	rateSource *rates.CachedSource
	classifier *classify.Classifier
	limits     calc.DeductionLimits
	validate   *validator.Validate
	log        zerolog.Logger
}

// Option customizes engine construction.
type Option func(*Engine)

// WithDeductionLimits overrides the all-zero statutory deduction limits.
func WithDeductionLimits(l calc.DeductionLimits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine builds an engine over a cached rate source and a compiled rule
// table. A nil ruleset selects the embedded default rules.
func NewEngine(rateSource *rates.CachedSource, rules *classify.Ruleset, opts ...Option) *Engine {
	e := &Engine{
		rateSource: rateSource,
		classifier: classify.New(rules),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// SINGLE-WORKER CALCULATION
// =============================================================================

// Calculate runs the full pipeline for one worker and pay period. The
// returned Outcome is always populated; errors never propagate as panics.
func (e *Engine) Calculate(ctx context.Context, req Request) Outcome {
	if err := e.validateRequest(req); err != nil {
		return fail(req.Worker.ID, req.Period.ID, err)
	}

	refDate := req.Period.End
	var extraFlags []nmw.AmberFlag

	// The required rate must be resolved, or the calculation explicitly
	// degraded, before any status classification happens.
	table, _, err := e.rateSource.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.log.Warn().Str("worker", string(req.Worker.ID)).Msg("rate table load deadline exceeded; degrading to AMBER")
			extraFlags = append(extraFlags, nmw.FlagRateTableUnavailable)
			table = nil
		} else {
			return fail(req.Worker.ID, req.Period.ID, err)
		}
	}

	_, ageKnown := req.Worker.AgeAt(refDate)
	requiredRate := decimal.Zero
	accommodationLimit := calc.DefaultAccommodationDailyLimit

	if table != nil && ageKnown {
		resolved, rerr := rates.Resolve(table, rates.Query{
			Age:                 req.Worker.Age,
			DateOfBirth:         req.Worker.DateOfBirth,
			ReferenceDate:       refDate,
			Apprentice:          req.Worker.Apprentice,
			ApprenticeshipStart: req.Worker.ApprenticeshipStart,
		})
		if rerr != nil {
			// Both branches fail this worker: under-16 input is invalid, and
			// a missing age band is a table integrity failure.
			return fail(req.Worker.ID, req.Period.ID, rerr)
		}
		requiredRate = resolved.HourlyRate
		if resolved.AccommodationDailyLimit.Sign() > 0 {
			accommodationLimit = resolved.AccommodationDailyLimit
		}
	}

	sub := e.fanOut(req, accommodationLimit)
	if err := sub.firstError(); err != nil {
		return fail(req.Worker.ID, req.Period.ID, err)
	}

	prpRes, err := e.runPRP(req, requiredRate, accommodationLimit)
	if err != nil {
		return fail(req.Worker.ID, req.Period.ID, err)
	}

	result := e.merge(req, requiredRate, prpRes, sub, extraFlags, ageKnown)
	return succeed(result)
}

func (e *Engine) validateRequest(req Request) error {
	if err := e.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &nmw.ValidationError{Field: verrs[0].Namespace(), Reason: "missing or invalid value"}
		}
		return &nmw.ValidationError{Reason: err.Error()}
	}
	if req.Worker.ID == "" {
		return &nmw.ValidationError{Field: "worker.id", Reason: "missing worker identifier"}
	}
	if err := req.Period.Validate(); err != nil {
		return err
	}
	return e.checkNonNegative(req)
}

func (e *Engine) checkNonNegative(req Request) error {
	checks := []struct {
		name string
		v    decimal.Decimal
	}{
		{"offsets.accommodation.total_charge", req.Offsets.Accommodation.TotalCharge},
		{"offsets.meals.total_charge", req.Offsets.Meals.TotalCharge},
		{"offsets.transport.total_charge", req.Offsets.Transport.TotalCharge},
	}
	for _, c := range checks {
		if c.v.IsNegative() {
			return &nmw.ValidationError{Field: c.name, Reason: "charge cannot be negative"}
		}
	}
	return nil
}

// =============================================================================
// FAN-OUT - The four independent calculators run concurrently
// =============================================================================

type subResults struct {
	accommodation calc.AccommodationResult
	deductions    calc.DeductionResult
	allowances    calc.AllowancePremiumResult
	tronc         calc.TroncResult
	errs          [4]error
}

func (s *subResults) firstError() error {
	for _, err := range s.errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) fanOut(req Request, accommodationLimit decimal.Decimal) *subResults {
	sub := &subResults{}
	var wg sync.WaitGroup

	run := func(slot int, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					sub.errs[slot] = fmt.Errorf("calculator panic: %v", r)
				}
			}()
			sub.errs[slot] = fn()
		}()
	}

	run(0, func() error {
		res, err := calc.NewAccommodationOffsetCalculator(accommodationLimit).
			Calculate(req.Offsets.Accommodation.TotalCharge, req.Period.Days())
		sub.accommodation = res
		return err
	})
	run(1, func() error {
		res, err := calc.NewDeductionEvaluator(e.limits).Evaluate(req.Deductions)
		sub.deductions = res
		return err
	})
	run(2, func() error {
		sub.allowances = calc.NewAllowancePremiumProcessor(e.classifier).Process(req.Components)
		return nil
	})
	run(3, func() error {
		gross := req.Period.TotalPay.Add(req.Enhancements.Total())
		sub.tronc = calc.NewTroncExclusionProcessor(e.classifier).
			Process(gross, enhancementComponents(req.Enhancements))
		return nil
	})

	wg.Wait()
	return sub
}

// enhancementComponents exposes the enhancement fields to the tronc
// processor as named components. Only these were summed into gross, so only
// these may be excluded again.
func enhancementComponents(enh calc.EnhancementData) calc.RawPayComponents {
	return calc.RawPayComponents{
		"bonus":         enh.Bonus,
		"commission":    enh.Commission,
		"tips":          enh.Tips,
		"tronc":         enh.Tronc,
		"shift_premium": enh.ShiftPremium,
		"overtime":      enh.Overtime,
		"holiday_pay":   enh.HolidayPay,
	}.NonZero()
}

func (e *Engine) runPRP(req Request, requiredRate, accommodationLimit decimal.Decimal) (calc.PRPResult, error) {
	return calc.NewPRPCalculator(accommodationLimit).Calculate(calc.PRPInput{
		Period:       req.Period,
		RequiredRate: requiredRate,
		Offsets:      offsetEntries(req.Offsets),
		Allowances:   allowanceEntries(req.Enhancements),
	})
}

// offsetEntries flattens the structured offset input into the PRP
// calculator's tagged list view.
func offsetEntries(o calc.OffsetData) []calc.OffsetEntry {
	var out []calc.OffsetEntry
	if o.Accommodation.TotalCharge.Sign() > 0 {
		out = append(out, calc.OffsetEntry{Description: "accommodation charge", Category: calc.OffsetAccommodation, Amount: o.Accommodation.TotalCharge})
	}
	if o.Meals.TotalCharge.Sign() > 0 {
		out = append(out, calc.OffsetEntry{Description: "meals charge", Category: calc.OffsetMeals, Amount: o.Meals.TotalCharge})
	}
	if o.Transport.TotalCharge.Sign() > 0 {
		out = append(out, calc.OffsetEntry{Description: "transport charge", Category: calc.OffsetDeductions, Amount: o.Transport.TotalCharge})
	}
	return out
}

func allowanceEntries(enh calc.EnhancementData) []calc.AllowanceEntry {
	entries := []struct {
		desc string
		cat  calc.AllowanceCategory
		v    decimal.Decimal
	}{
		{"tips", calc.AllowanceTronc, enh.Tips},
		{"tronc", calc.AllowanceTronc, enh.Tronc},
		{"shift premium", calc.AllowancePremium, enh.ShiftPremium},
		{"overtime", calc.AllowancePremium, enh.Overtime},
		{"bonus", calc.AllowanceBonus, enh.Bonus},
		{"commission", calc.AllowanceBonus, enh.Commission},
		{"holiday pay", calc.AllowanceBonus, enh.HolidayPay},
	}
	var out []calc.AllowanceEntry
	for _, en := range entries {
		if en.v.IsZero() {
			continue
		}
		out = append(out, calc.AllowanceEntry{Description: en.desc, Category: en.cat, Amount: en.v})
	}
	return out
}

// =============================================================================
// MERGE - One net-pay figure, one canonical verdict
// =============================================================================

func (e *Engine) merge(req Request, requiredRate decimal.Decimal, prpRes calc.PRPResult, sub *subResults, extraFlags []nmw.AmberFlag, ageKnown bool) *ComplianceResult {
	netPay := req.Period.TotalPay.
		Add(sub.allowances.TotalIncluded).
		Add(sub.allowances.TotalBasic).
		Add(req.Enhancements.Total()).
		Sub(req.Deductions.Total()).
		Sub(sub.tronc.TotalExcluded)

	totalOffsets := sub.accommodation.TotalOffset.
		Add(req.Offsets.Meals.TotalCharge).
		Add(req.Offsets.Transport.TotalCharge)

	effective := nmw.SafeDiv(netPay.Sub(totalOffsets), req.Period.HoursWorked)

	verdict := ResolveRAG(RAGInput{
		EffectiveRate:          effective,
		RequiredRate:           requiredRate,
		HoursWorked:            req.Period.HoursWorked,
		TotalPay:               req.Period.TotalPay,
		AgeKnown:               ageKnown,
		DeductionRatio:         nmw.RatioOf(req.Deductions.Total(), req.Period.TotalPay),
		AccommodationViolation: sub.accommodation.HasExcess(),
		ExtraFlags:             extraFlags,
	})

	result := &ComplianceResult{
		WorkerID:            req.Worker.ID,
		PayPeriodID:         req.Period.ID,
		EffectiveHourlyRate: nmw.Round2(effective),
		RequiredHourlyRate:  requiredRate,
		NetPayForNMW:        nmw.Round2(netPay),
		Status:              verdict.Status,
		Severity:            verdict.Severity,
		Reason:              verdict.Reason,
		Flags:               verdict.Flags,
		Score:               e.finalScore(effective, requiredRate, sub),
		Breakdown: Breakdown{
			PRP:           &prpRes,
			Accommodation: &sub.accommodation,
			Deductions:    &sub.deductions,
			Allowances:    &sub.allowances,
			Tronc:         &sub.tronc,
		},
	}

	result.Warnings = e.collectWarnings(sub)
	result.Suggestions = GenerateFixes(FixInput{
		Verdict:       verdict,
		EffectiveRate: effective,
		RequiredRate:  requiredRate,
		HoursWorked:   req.Period.HoursWorked,
	})
	return result
}

// finalScore is informational: 100 minus capped penalties for the rate
// shortfall (up to 60), accommodation excess (up to 20) and deduction
// excess (up to 20), floored at zero. The status never derives from it.
func (e *Engine) finalScore(effective, required decimal.Decimal, sub *subResults) int {
	score := decimal.NewFromInt(100)

	if required.Sign() > 0 && effective.LessThan(required) {
		p := required.Sub(effective).Div(required).Mul(decimal.NewFromInt(100))
		score = score.Sub(decimal.Min(p, decimal.NewFromInt(60)))
	}
	if sub.accommodation.TotalCharge.Sign() > 0 {
		p := sub.accommodation.TotalExcess.Div(sub.accommodation.TotalCharge).Mul(decimal.NewFromInt(20))
		score = score.Sub(decimal.Min(p, decimal.NewFromInt(20)))
	}
	if sub.deductions.Total.Sign() > 0 {
		p := sub.deductions.ExcessSum.Div(sub.deductions.Total).Mul(decimal.NewFromInt(20))
		score = score.Sub(decimal.Min(p, decimal.NewFromInt(20)))
	}

	n := int(score.Round(0).IntPart())
	if n < 0 {
		n = 0
	}
	return n
}

func (e *Engine) collectWarnings(sub *subResults) []nmw.Warning {
	var out []nmw.Warning
	out = append(out, sub.allowances.Warnings...)
	out = append(out, sub.tronc.Warnings...)

	if sub.accommodation.HasExcess() {
		out = append(out, nmw.Warning{
			Source:   nmw.ComponentAccommodation,
			Code:     nmw.IssueAccommodationExceeded,
			Severity: nmw.SeverityMedium,
			Message: fmt.Sprintf("accommodation charge exceeds the daily offset limit by %s over the period",
				nmw.FormatGBP(sub.accommodation.TotalExcess)),
		})
	}
	for _, issue := range sub.deductions.Issues {
		out = append(out, nmw.Warning{
			Source:   nmw.ComponentDeductions,
			Code:     issue.Code,
			Severity: issue.Severity,
			Message:  issue.Message,
		})
	}
	return out
}
