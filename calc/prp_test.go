package calc_test

import (
	"testing"
	"time"

	"github.com/warp/compliance-engine/calc"
	"github.com/warp/compliance-engine/nmw"
)

func june2024(hours, pay string) nmw.PayPeriod {
	return nmw.PayPeriod{
		ID:          "pp-2024-06",
		Start:       nmw.NewDate(2024, time.June, 1),
		End:         nmw.NewDate(2024, time.June, 30),
		HoursWorked: nmw.MustDecimal(hours),
		TotalPay:    nmw.MustDecimal(pay),
	}
}

func TestPRP_CompliantPeriod_Green(t *testing.T) {
	res, err := calc.NewPRPCalculator(nmw.MustDecimal("9.99")).Calculate(calc.PRPInput{
		Period:       june2024("160", "2000.00"),
		RequiredRate: nmw.MustDecimal("11.44"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.EffectiveRate.Equal(nmw.MustDecimal("12.5")) {
		t.Errorf("expected effective rate 12.50, got %s", res.EffectiveRate)
	}
	if res.Status != nmw.StatusGreen {
		t.Errorf("expected GREEN, got %s", res.Status)
	}
	if res.PRPType != nmw.PRPMonthly {
		t.Errorf("expected monthly PRP, got %s", res.PRPType)
	}
	if len(res.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", res.Issues)
	}
}

func TestPRP_OffsetsReduceEffectiveRate(t *testing.T) {
	// 2000 pay - 400 offsets over 160 hours = 10.00/hour
	res, err := calc.NewPRPCalculator(nmw.MustDecimal("9.99")).Calculate(calc.PRPInput{
		Period:       june2024("160", "2000.00"),
		RequiredRate: nmw.MustDecimal("11.44"),
		Offsets: []calc.OffsetEntry{
			{Description: "staff accommodation", Category: calc.OffsetAccommodation, Amount: nmw.MustDecimal("400.00")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.EffectiveRate.Equal(nmw.MustDecimal("10")) {
		t.Errorf("expected effective rate 10.00, got %s", res.EffectiveRate)
	}
	if res.Status != nmw.StatusRed {
		t.Errorf("expected RED, got %s", res.Status)
	}

	// 400/30 days = 13.33/day, over the 9.99 limit
	if len(res.Flags) != 1 {
		t.Fatalf("expected one offset flag, got %d", len(res.Flags))
	}
	if res.Flags[0].Category != calc.OffsetAccommodation {
		t.Errorf("expected accommodation flag, got %s", res.Flags[0].Category)
	}

	foundRate := false
	foundAccommodation := false
	for _, is := range res.Issues {
		switch is.Code {
		case nmw.IssueRateBelowMinimum:
			foundRate = true
		case nmw.IssueAccommodationExceeded:
			foundAccommodation = true
		}
	}
	if !foundRate || !foundAccommodation {
		t.Errorf("expected rate and accommodation issues, got %+v", res.Issues)
	}
}

func TestPRP_TroncAllowanceExcluded(t *testing.T) {
	res, err := calc.NewPRPCalculator(nmw.MustDecimal("9.99")).Calculate(calc.PRPInput{
		Period:       june2024("160", "1600.00"),
		RequiredRate: nmw.MustDecimal("11.44"),
		Allowances: []calc.AllowanceEntry{
			{Description: "tronc", Category: calc.AllowanceTronc, Amount: nmw.MustDecimal("300.00")},
			{Description: "london weighting", Amount: nmw.MustDecimal("240.00")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TroncExcluded.Equal(nmw.MustDecimal("300.00")) {
		t.Errorf("expected 300.00 tronc excluded, got %s", res.TroncExcluded)
	}
	if !res.TotalAllowances.Equal(nmw.MustDecimal("240.00")) {
		t.Errorf("expected 240.00 counted allowances, got %s", res.TotalAllowances)
	}
	// (1600 + 240) / 160 = 11.50
	if !res.EffectiveRate.Equal(nmw.MustDecimal("11.5")) {
		t.Errorf("expected effective 11.50, got %s", res.EffectiveRate)
	}
	if res.Status != nmw.StatusGreen {
		t.Errorf("expected GREEN, got %s", res.Status)
	}
}

func TestPRP_AmberWithinTolerance(t *testing.T) {
	// Effective 11.30 against required 11.44 is a 1.2% shortfall, inside
	// the 2% AMBER band.
	res, err := calc.NewPRPCalculator(nmw.MustDecimal("9.99")).Calculate(calc.PRPInput{
		Period:       june2024("160", "1808.00"),
		RequiredRate: nmw.MustDecimal("11.44"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.EffectiveRate.Equal(nmw.MustDecimal("11.3")) {
		t.Fatalf("expected effective 11.30, got %s", res.EffectiveRate)
	}
	if res.Status != nmw.StatusAmber {
		t.Errorf("expected AMBER inside the tolerance band, got %s", res.Status)
	}
}

func TestPRP_InferredCategories(t *testing.T) {
	res, err := calc.NewPRPCalculator(nmw.MustDecimal("9.99")).Calculate(calc.PRPInput{
		Period:       june2024("160", "2000.00"),
		RequiredRate: nmw.MustDecimal("11.44"),
		Offsets: []calc.OffsetEntry{
			{Description: "room and lodging", Amount: nmw.MustDecimal("600.00")},
		},
		Allowances: []calc.AllowanceEntry{
			{Description: "tip share", Amount: nmw.MustDecimal("100.00")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Flags) != 1 || res.Flags[0].Category != calc.OffsetAccommodation {
		t.Errorf("expected the lodging entry inferred as accommodation, got %+v", res.Flags)
	}
	if !res.TroncExcluded.Equal(nmw.MustDecimal("100.00")) {
		t.Errorf("expected the tip share inferred as tronc, got %s", res.TroncExcluded)
	}
}

func TestPRP_SuggestionOrdering(t *testing.T) {
	res, err := calc.NewPRPCalculator(nmw.MustDecimal("9.99")).Calculate(calc.PRPInput{
		Period:       june2024("160", "1500.00"),
		RequiredRate: nmw.MustDecimal("11.44"),
		Offsets: []calc.OffsetEntry{
			{Description: "staff accommodation", Category: calc.OffsetAccommodation, Amount: nmw.MustDecimal("400.00")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Suggestions) < 3 {
		t.Fatalf("expected increase-pay, reduce-offsets and cap suggestions, got %+v", res.Suggestions)
	}
	if res.Suggestions[0].Kind != nmw.SuggestIncreasePay {
		t.Errorf("expected INCREASE_PAY first, got %s", res.Suggestions[0].Kind)
	}
	if res.Suggestions[1].Kind != nmw.SuggestReduceOffsets {
		t.Errorf("expected REDUCE_OFFSETS second, got %s", res.Suggestions[1].Kind)
	}
}

func TestPRP_InvalidPeriod(t *testing.T) {
	p := june2024("160", "2000.00")
	p.End = nmw.NewDate(2024, time.May, 1) // before start
	_, err := calc.NewPRPCalculator(nmw.MustDecimal("9.99")).Calculate(calc.PRPInput{Period: p})
	if !nmw.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPRP_PRPTypes(t *testing.T) {
	cases := []struct {
		end  nmw.Date
		want nmw.PRPType
	}{
		{nmw.NewDate(2024, time.June, 7), nmw.PRPWeekly},
		{nmw.NewDate(2024, time.June, 30), nmw.PRPMonthly},
		{nmw.NewDate(2024, time.August, 30), nmw.PRPQuarterly},
		{nmw.NewDate(2025, time.May, 31), nmw.PRPAnnual},
	}
	for _, tc := range cases {
		p := nmw.PayPeriod{
			ID:          "pp",
			Start:       nmw.NewDate(2024, time.June, 1),
			End:         tc.end,
			HoursWorked: nmw.MustDecimal("10"),
			TotalPay:    nmw.MustDecimal("200"),
		}
		if got := p.PRPType(); got != tc.want {
			t.Errorf("end %s: expected %s, got %s", tc.end, tc.want, got)
		}
	}
}
