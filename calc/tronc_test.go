package calc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/compliance-engine/calc"
	"github.com/warp/compliance-engine/classify"
	"github.com/warp/compliance-engine/nmw"
)

func newTroncProcessor() *calc.TroncExclusionProcessor {
	return calc.NewTroncExclusionProcessor(classify.New(nil))
}

func TestTronc_HighConfidence_AutoExcluded(t *testing.T) {
	res := newTroncProcessor().Process(nmw.MustDecimal("1000"), calc.RawPayComponents{
		"tronc":       nmw.MustDecimal("80.00"),
		"tip pool":    nmw.MustDecimal("20.00"),
		"base salary": nmw.MustDecimal("900.00"),
	})

	assert.True(t, res.TotalExcluded.Equal(nmw.MustDecimal("100.00")), "got %s", res.TotalExcluded)
	assert.True(t, res.AdjustedPay.Equal(nmw.MustDecimal("900.00")), "got %s", res.AdjustedPay)
	require.Len(t, res.Excluded, 2)
	for _, tc := range res.Excluded {
		assert.True(t, tc.AutoExcluded, "component %q", tc.Name)
	}
	assert.Equal(t, calc.ImpactModerate, res.Impact) // 10% of gross
}

func TestTronc_ManualReviewMatch_FlaggedNotSubtracted(t *testing.T) {
	// A medium-confidence tips rule match is reported but the amount stays
	// in pay pending confirmation.
	res := newTroncProcessor().Process(nmw.MustDecimal("1000"), calc.RawPayComponents{
		"discretionary payment": nmw.MustDecimal("50.00"),
	})

	assert.True(t, res.TotalExcluded.IsZero())
	assert.True(t, res.TotalFlagged.Equal(nmw.MustDecimal("50.00")), "got %s", res.TotalFlagged)
	assert.True(t, res.AdjustedPay.Equal(nmw.MustDecimal("1000")), "flagged amounts must not be subtracted")
	require.Len(t, res.FlaggedForReview, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, nmw.IssueTroncExcluded, res.Warnings[0].Code)
	assert.Equal(t, nmw.SeverityMedium, res.Warnings[0].Severity)
}

func TestTronc_KeywordFallback_WhenRulesSilent(t *testing.T) {
	// With a rule table that knows nothing about tips, the fixed keyword
	// fallback still flags tip-like names for review.
	rules, err := classify.Compile([]byte(`{
		"version": 1,
		"rules": [
			{"category_path": "bonus.performance", "keywords": ["bonus"], "treatment": "full_inclusion", "confidence": "high"}
		],
		"default_premium_ratio": "0.67"
	}`))
	require.NoError(t, err)

	res := calc.NewTroncExclusionProcessor(classify.New(rules)).
		Process(nmw.MustDecimal("500"), calc.RawPayComponents{
			"tip jar": nmw.MustDecimal("30.00"),
		})

	assert.True(t, res.TotalExcluded.IsZero())
	assert.True(t, res.TotalFlagged.Equal(nmw.MustDecimal("30.00")), "got %s", res.TotalFlagged)
	assert.True(t, res.AdjustedPay.Equal(nmw.MustDecimal("500")))
}

func TestTronc_Idempotent(t *testing.T) {
	// Running the processor over already-adjusted pay with the excluded
	// components removed must change nothing further.
	p := newTroncProcessor()
	components := calc.RawPayComponents{
		"tips":        nmw.MustDecimal("120.00"),
		"base salary": nmw.MustDecimal("880.00"),
	}
	first := p.Process(nmw.MustDecimal("1000"), components)

	remaining := calc.RawPayComponents{"base salary": components["base salary"]}
	second := p.Process(first.AdjustedPay, remaining)

	assert.True(t, second.TotalExcluded.IsZero())
	assert.True(t, second.AdjustedPay.Equal(first.AdjustedPay))
	assert.Equal(t, calc.ImpactNone, second.Impact)
}

func TestTronc_LargeShare_ExtraWarning(t *testing.T) {
	// 20% of gross: exclusion warning plus the large-share warning
	res := newTroncProcessor().Process(nmw.MustDecimal("1000"), calc.RawPayComponents{
		"tronc": nmw.MustDecimal("200.00"),
	})

	assert.Equal(t, calc.ImpactSignificant, res.Impact)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, nmw.SeverityCritical, res.Warnings[0].Severity)
	assert.Equal(t, nmw.SeverityHigh, res.Warnings[1].Severity)
}

func TestTronc_NoTips(t *testing.T) {
	res := newTroncProcessor().Process(nmw.MustDecimal("1000"), calc.RawPayComponents{
		"base salary": nmw.MustDecimal("1000.00"),
	})
	assert.True(t, res.TotalExcluded.IsZero())
	assert.Empty(t, res.Warnings)
	assert.Equal(t, calc.ImpactNone, res.Impact)
}
