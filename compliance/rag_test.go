package compliance_test

import (
	"testing"

	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/nmw"
)

func ragBase() compliance.RAGInput {
	return compliance.RAGInput{
		EffectiveRate: nmw.MustDecimal("12.50"),
		RequiredRate:  nmw.MustDecimal("11.44"),
		HoursWorked:   nmw.MustDecimal("40"),
		TotalPay:      nmw.MustDecimal("500"),
		AgeKnown:      true,
	}
}

func TestResolveRAG_Green(t *testing.T) {
	v := compliance.ResolveRAG(ragBase())
	if v.Status != nmw.StatusGreen {
		t.Fatalf("expected GREEN, got %s (%s)", v.Status, v.Reason)
	}
	if v.Severity != nil {
		t.Error("GREEN must carry no severity")
	}
	if len(v.Flags) != 0 {
		t.Errorf("GREEN must carry no flags, got %v", v.Flags)
	}
}

func TestResolveRAG_Green_ExactlyAtRate(t *testing.T) {
	in := ragBase()
	in.EffectiveRate = in.RequiredRate
	if v := compliance.ResolveRAG(in); v.Status != nmw.StatusGreen {
		t.Errorf("effective == required must be GREEN, got %s", v.Status)
	}
}

func TestResolveRAG_Red_SeverityLadder(t *testing.T) {
	cases := []struct {
		effective string // against required 10.00
		severity  nmw.Severity
	}{
		{"7.50", nmw.SeverityCritical}, // 25% short
		{"8.50", nmw.SeverityHigh},     // 15% short
		{"9.20", nmw.SeverityMedium},   // 8% short
		{"9.70", nmw.SeverityLow},      // 3% short
	}
	for _, tc := range cases {
		in := ragBase()
		in.RequiredRate = nmw.MustDecimal("10.00")
		in.EffectiveRate = nmw.MustDecimal(tc.effective)
		v := compliance.ResolveRAG(in)
		if v.Status != nmw.StatusRed {
			t.Errorf("effective %s: expected RED, got %s", tc.effective, v.Status)
			continue
		}
		if v.Severity == nil || *v.Severity != tc.severity {
			t.Errorf("effective %s: expected severity %s, got %v", tc.effective, tc.severity, v.Severity)
		}
	}
}

func TestResolveRAG_AmberFlagsBeatRateComparison(t *testing.T) {
	// A below-rate calculation with missing age must come back AMBER, not
	// RED: the required rate itself is unreliable.
	in := ragBase()
	in.AgeKnown = false
	in.EffectiveRate = nmw.MustDecimal("5.00")

	v := compliance.ResolveRAG(in)
	if v.Status != nmw.StatusAmber {
		t.Fatalf("expected AMBER, got %s", v.Status)
	}
	if len(v.Flags) != 1 || v.Flags[0] != nmw.FlagMissingAgeData {
		t.Errorf("expected the missing-age flag, got %v", v.Flags)
	}
	if v.Severity != nil {
		t.Error("AMBER must carry no severity")
	}
}

func TestResolveRAG_AmberFlags(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*compliance.RAGInput)
		flag nmw.AmberFlag
	}{
		{
			"zero hours with pay",
			func(in *compliance.RAGInput) {
				in.HoursWorked = nmw.MustDecimal("0")
				in.EffectiveRate = nmw.MustDecimal("0")
			},
			nmw.FlagZeroHoursWithPay,
		},
		{
			"negative effective rate",
			func(in *compliance.RAGInput) { in.EffectiveRate = nmw.MustDecimal("-1.50") },
			nmw.FlagNegativeEffectiveRate,
		},
		{
			"deductions above half of pay",
			func(in *compliance.RAGInput) { in.DeductionRatio = nmw.MustDecimal("0.6") },
			nmw.FlagExcessiveDeductions,
		},
		{
			"accommodation violation",
			func(in *compliance.RAGInput) { in.AccommodationViolation = true },
			nmw.FlagAccommodationOffsets,
		},
		{
			"rate table unavailable",
			func(in *compliance.RAGInput) {
				in.ExtraFlags = []nmw.AmberFlag{nmw.FlagRateTableUnavailable}
			},
			nmw.FlagRateTableUnavailable,
		},
	}
	for _, tc := range cases {
		in := ragBase()
		tc.mod(&in)
		v := compliance.ResolveRAG(in)
		if v.Status != nmw.StatusAmber {
			t.Errorf("%s: expected AMBER, got %s", tc.name, v.Status)
			continue
		}
		found := false
		for _, f := range v.Flags {
			if f == tc.flag {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: expected flag %s in %v", tc.name, tc.flag, v.Flags)
		}
		if v.Reason == "" {
			t.Errorf("%s: expected a human-readable reason", tc.name)
		}
	}
}

func TestResolveRAG_DeductionRatioAtBoundary(t *testing.T) {
	// Exactly half is not "more than half".
	in := ragBase()
	in.DeductionRatio = nmw.MustDecimal("0.5")
	if v := compliance.ResolveRAG(in); v.Status != nmw.StatusGreen {
		t.Errorf("a deduction ratio of exactly 0.5 must not degrade, got %s", v.Status)
	}
}

func TestResolveRAG_MultipleFlagsCollected(t *testing.T) {
	in := ragBase()
	in.AgeKnown = false
	in.HoursWorked = nmw.MustDecimal("0")
	in.EffectiveRate = nmw.MustDecimal("0")

	v := compliance.ResolveRAG(in)
	if len(v.Flags) != 2 {
		t.Fatalf("expected both flags collected, got %v", v.Flags)
	}
	if v.Flags[0] != nmw.FlagZeroHoursWithPay || v.Flags[1] != nmw.FlagMissingAgeData {
		t.Errorf("expected deterministic flag order, got %v", v.Flags)
	}
}
