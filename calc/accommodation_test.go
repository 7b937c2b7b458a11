package calc_test

import (
	"testing"

	"github.com/warp/compliance-engine/calc"
	"github.com/warp/compliance-engine/nmw"
)

func defaultAccommodation() *calc.AccommodationOffsetCalculator {
	return calc.NewAccommodationOffsetCalculator(nmw.MustDecimal("9.99"))
}

func TestAccommodation_WithinLimit_Green(t *testing.T) {
	// GIVEN: A charge whose daily rate sits under the limit
	// THEN: The full charge is offsettable and the status is GREEN

	res, err := defaultAccommodation().Calculate(nmw.MustDecimal("200.00"), 31)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TotalOffset.Equal(nmw.MustDecimal("200.00")) {
		t.Errorf("expected full offset 200.00, got %s", res.TotalOffset)
	}
	if !res.TotalExcess.IsZero() {
		t.Errorf("expected no excess, got %s", res.TotalExcess)
	}
	if res.Status != nmw.StatusGreen {
		t.Errorf("expected GREEN, got %s", res.Status)
	}
	if res.Score != 100 {
		t.Errorf("expected score 100, got %d", res.Score)
	}
}

func TestAccommodation_OverLimit_MonthlyCharge(t *testing.T) {
	// GIVEN: total_charge=400 over 31 days against the 9.99 daily limit
	// THEN: offset=309.69, excess=90.31, and the two reconcile to the charge

	res, err := defaultAccommodation().Calculate(nmw.MustDecimal("400"), 31)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TotalOffset.Equal(nmw.MustDecimal("309.69")) {
		t.Errorf("expected offset 309.69, got %s", res.TotalOffset)
	}
	if !res.TotalExcess.Equal(nmw.MustDecimal("90.31")) {
		t.Errorf("expected excess 90.31, got %s", res.TotalExcess)
	}
	if res.Status != nmw.StatusAmber {
		t.Errorf("expected AMBER for the over-limit monthly charge, got %s", res.Status)
	}
	if res.HasExcess() != true {
		t.Error("expected HasExcess")
	}
}

func TestAccommodation_Conservation(t *testing.T) {
	// offset + excess must equal the charge for any input
	charges := []string{"0.01", "9.99", "10.00", "99.37", "309.69", "400", "1234.56", "10000"}
	daysGrid := []int{1, 7, 28, 30, 31, 91, 365}

	for _, c := range charges {
		for _, d := range daysGrid {
			charge := nmw.MustDecimal(c)
			res, err := defaultAccommodation().Calculate(charge, d)
			if err != nil {
				t.Fatalf("charge %s days %d: unexpected error: %v", c, d, err)
			}
			sum := res.TotalOffset.Add(res.TotalExcess)
			if !sum.Equal(nmw.Round2(charge)) {
				t.Errorf("charge %s days %d: offset %s + excess %s = %s, want %s",
					c, d, res.TotalOffset, res.TotalExcess, sum, charge)
			}
			if res.TotalOffset.IsNegative() || res.TotalExcess.IsNegative() {
				t.Errorf("charge %s days %d: negative component", c, d)
			}
		}
	}
}

func TestAccommodation_ZeroCharge(t *testing.T) {
	res, err := defaultAccommodation().Calculate(nmw.MustDecimal("0"), 31)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TotalOffset.IsZero() || !res.TotalExcess.IsZero() {
		t.Errorf("zero charge must yield zero offset and excess, got %s / %s", res.TotalOffset, res.TotalExcess)
	}
	if res.Status != nmw.StatusGreen {
		t.Errorf("expected GREEN for no accommodation, got %s", res.Status)
	}
}

func TestAccommodation_InvalidInput(t *testing.T) {
	if _, err := defaultAccommodation().Calculate(nmw.MustDecimal("100"), 0); !nmw.IsValidation(err) {
		t.Errorf("expected validation error for zero days, got %v", err)
	}
	if _, err := defaultAccommodation().Calculate(nmw.MustDecimal("-5"), 31); !nmw.IsValidation(err) {
		t.Errorf("expected validation error for negative charge, got %v", err)
	}
}

func TestAccommodation_DefaultLimitWhenUnset(t *testing.T) {
	c := calc.NewAccommodationOffsetCalculator(nmw.MustDecimal("0"))
	if !c.DailyLimit.Equal(calc.DefaultAccommodationDailyLimit) {
		t.Errorf("expected the default daily limit, got %s", c.DailyLimit)
	}
}
