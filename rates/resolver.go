package rates

import (
	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// RATE RESOLUTION - Required rate for an age/date/apprentice combination
// =============================================================================

// Query carries the worker attributes relevant to rate resolution.
// Age wins over DateOfBirth when both are present.
type Query struct {
	Age                 *int
	DateOfBirth         *nmw.Date
	ReferenceDate       nmw.Date
	Apprentice          bool
	ApprenticeshipStart *nmw.Date
}

// Resolved is the outcome of a successful rate resolution.
type Resolved struct {
	HourlyRate              decimal.Decimal
	Band                    string // matched band description, or "apprentice"
	ApprenticeRateApplied   bool
	AccommodationDailyLimit decimal.Decimal
	EffectiveFrom           nmw.Date
}

// apprenticeWindowDays is how recently an apprenticeship must have started
// for a worker aged 19 or over to stay on the apprentice rate.
const apprenticeWindowDays = 365

// Resolve selects the legally required hourly rate from the table.
//
// Validation: an age must be resolvable (explicit or from date of birth),
// numeric overflow aside, and sit in [16, 150]. NMW legislation does not
// apply below 16, so that is a validation failure rather than a zero rate.
//
// Apprentices take the apprentice rate when under 19, or at 19+ while within
// one year of their apprenticeship start date; otherwise they fall through
// to the ordinary age-band scan (the apprentice entry is not part of that
// scan). A worker whose age no band covers is a table integrity failure.
func Resolve(t *Table, q Query) (Resolved, error) {
	if q.ReferenceDate.IsZero() {
		return Resolved{}, &nmw.ValidationError{Field: "reference_date", Reason: "missing reference date"}
	}

	age, err := resolveAge(q)
	if err != nil {
		return Resolved{}, err
	}

	rec, ok := t.RecordFor(q.ReferenceDate)
	if !ok {
		return Resolved{}, &nmw.RateNotFoundError{Age: age, ReferenceDate: q.ReferenceDate}
	}

	if q.Apprentice && apprenticeRateApplies(age, q) {
		return Resolved{
			HourlyRate:              rec.ApprenticeRate,
			Band:                    "apprentice",
			ApprenticeRateApplied:   true,
			AccommodationDailyLimit: rec.AccommodationDailyLimit,
			EffectiveFrom:           rec.EffectiveFrom,
		}, nil
	}

	for _, b := range rec.Bands {
		if b.Contains(age) {
			return Resolved{
				HourlyRate:              b.HourlyRate,
				Band:                    b.Description,
				AccommodationDailyLimit: rec.AccommodationDailyLimit,
				EffectiveFrom:           rec.EffectiveFrom,
			}, nil
		}
	}
	return Resolved{}, &nmw.RateNotFoundError{Age: age, ReferenceDate: q.ReferenceDate}
}

func resolveAge(q Query) (int, error) {
	var age int
	switch {
	case q.Age != nil:
		age = *q.Age
	case q.DateOfBirth != nil && !q.DateOfBirth.IsZero():
		if q.DateOfBirth.After(q.ReferenceDate) {
			return 0, &nmw.ValidationError{Field: "date_of_birth", Reason: "date of birth after reference date"}
		}
		age = nmw.AgeAt(*q.DateOfBirth, q.ReferenceDate)
	default:
		return 0, &nmw.ValidationError{Field: "age", Reason: "age or date of birth required"}
	}

	if age < 16 {
		return 0, &nmw.ValidationError{Field: "age", Reason: "NMW legislation does not apply below age 16"}
	}
	if age > 150 {
		return 0, &nmw.ValidationError{Field: "age", Reason: "age out of range"}
	}
	return age, nil
}

func apprenticeRateApplies(age int, q Query) bool {
	if age < 19 {
		return true
	}
	if q.ApprenticeshipStart == nil || q.ApprenticeshipStart.IsZero() {
		return false
	}
	elapsed := nmw.DaysBetween(*q.ApprenticeshipStart, q.ReferenceDate)
	return elapsed >= 0 && elapsed <= apprenticeWindowDays
}
