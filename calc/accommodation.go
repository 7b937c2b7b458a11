package calc

import (
	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// ACCOMMODATION OFFSET - Permissible charge offset and excess
// =============================================================================

// AccommodationResult reports how much of an accommodation charge may count
// against NMW pay, and how much exceeds the statutory daily limit.
//
// Conservation invariant: TotalOffset + TotalExcess == TotalCharge for every
// non-negative charge, to the rounding unit.
type AccommodationResult struct {
	TotalCharge      decimal.Decimal `json:"total_charge"`
	Days             int             `json:"days"`
	DailyLimit       decimal.Decimal `json:"daily_limit"`
	DailyCharge      decimal.Decimal `json:"daily_charge"`
	PermissibleDaily decimal.Decimal `json:"permissible_daily"`
	TotalOffset      decimal.Decimal `json:"total_offset"`
	DailyExcess      decimal.Decimal `json:"daily_excess"`
	TotalExcess      decimal.Decimal `json:"total_excess"`
	CompliantDays    int             `json:"compliant_days"`
	NonCompliantDays int             `json:"non_compliant_days"`
	Status           nmw.RAGStatus   `json:"status"`
	Score            int             `json:"score"`
}

// HasExcess reports whether any part of the charge exceeded the daily limit.
func (r AccommodationResult) HasExcess() bool { return r.TotalExcess.Sign() > 0 }

// AccommodationOffsetCalculator evaluates an accommodation charge against
// the daily offset limit in force for the period.
type AccommodationOffsetCalculator struct {
	DailyLimit decimal.Decimal
}

// DefaultAccommodationDailyLimit applies when the rate table supplies none.
var DefaultAccommodationDailyLimit = nmw.MustDecimal("9.99")

func NewAccommodationOffsetCalculator(dailyLimit decimal.Decimal) *AccommodationOffsetCalculator {
	if dailyLimit.Sign() <= 0 {
		dailyLimit = DefaultAccommodationDailyLimit
	}
	return &AccommodationOffsetCalculator{DailyLimit: dailyLimit}
}

// Calculate splits a total accommodation charge into the permissible offset
// and the excess over the daily limit.
//
// When the daily charge is within the limit the whole charge is offsettable
// and the period is GREEN. Above the limit, the offset is capped at
// limit x days and the remainder is excess; the verdict is AMBER while at
// least 80% of days are compliant, RED below that.
func (c *AccommodationOffsetCalculator) Calculate(totalCharge decimal.Decimal, days int) (AccommodationResult, error) {
	if days <= 0 {
		return AccommodationResult{}, &nmw.ValidationError{Field: "days", Reason: "period day count must be positive"}
	}
	if totalCharge.IsNegative() {
		return AccommodationResult{}, &nmw.ValidationError{Field: "accommodation.total_charge", Reason: "charge cannot be negative"}
	}

	dDays := decimal.NewFromInt(int64(days))
	dailyCharge := totalCharge.Div(dDays)

	res := AccommodationResult{
		TotalCharge: totalCharge,
		Days:        days,
		DailyLimit:  c.DailyLimit,
		DailyCharge: nmw.Round2(dailyCharge),
	}

	if dailyCharge.LessThanOrEqual(c.DailyLimit) {
		// Whole charge is offsettable; excess is zero by construction.
		res.PermissibleDaily = nmw.Round2(dailyCharge)
		res.TotalOffset = nmw.Round2(totalCharge)
		res.DailyExcess = decimal.Zero
		res.TotalExcess = decimal.Zero
		res.CompliantDays = days
		res.NonCompliantDays = 0
		res.Status = nmw.StatusGreen
		res.Score = 100
		return res, nil
	}

	res.PermissibleDaily = c.DailyLimit
	res.TotalOffset = nmw.Round2(c.DailyLimit.Mul(dDays))
	res.DailyExcess = nmw.Round2(dailyCharge.Sub(c.DailyLimit))
	// Derive the total excess from the offset so the conservation invariant
	// holds exactly, rather than re-multiplying the rounded daily excess.
	res.TotalExcess = nmw.Round2(totalCharge.Sub(res.TotalOffset))

	compliant := int(totalCharge.Div(c.DailyLimit).IntPart())
	if compliant > days {
		compliant = days
	}
	res.CompliantDays = compliant
	res.NonCompliantDays = days - compliant

	ratio := decimal.NewFromInt(int64(compliant)).Div(dDays)
	if ratio.GreaterThanOrEqual(nmw.MustDecimal("0.8")) {
		res.Status = nmw.StatusAmber
	} else {
		res.Status = nmw.StatusRed
	}
	res.Score = int(ratio.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	return res, nil
}
