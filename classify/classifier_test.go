package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/compliance-engine/classify"
	"github.com/warp/compliance-engine/nmw"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"Shift_Premium":     "shift premium",
		"  TRONC  Payment ": "tronc payment",
		"night-shift.bonus": "night shift bonus",
		"overtime,weekend":  "overtime weekend",
	}
	for in, want := range cases {
		assert.Equal(t, want, classify.NormalizeLabel(in), "input %q", in)
	}
}

func TestClassify_RuleMatches(t *testing.T) {
	c := classify.New(nil) // embedded default rules

	cases := []struct {
		label      string
		path       string
		treatment  classify.Treatment
		confidence classify.Confidence
	}{
		{"Tronc Payment", "tips.customer", classify.FullExclusion, classify.ConfidenceHigh},
		{"service charge distribution", "tips.customer", classify.FullExclusion, classify.ConfidenceHigh},
		{"overtime_hours", "premiums.overtime", classify.BasicRateOnly, classify.ConfidenceHigh},
		{"night shift premium", "premiums.shift", classify.BasicRateOnly, classify.ConfidenceMedium},
		{"london weighting", "allowances.general", classify.FullInclusion, classify.ConfidenceHigh},
		{"mileage reimbursement", "allowances.expenses", classify.FullExclusion, classify.ConfidenceMedium},
		{"quarterly bonus", "bonus.performance", classify.FullInclusion, classify.ConfidenceHigh},
		{"discretionary payment", "tips.possible", classify.RequiresManualReview, classify.ConfidenceMedium},
	}
	for _, tc := range cases {
		res := c.Classify(tc.label)
		assert.Equal(t, tc.path, res.CategoryPath, "label %q", tc.label)
		assert.Equal(t, tc.treatment, res.Treatment, "label %q", tc.label)
		assert.Equal(t, tc.confidence, res.Confidence, "label %q", tc.label)
		assert.NotEmpty(t, res.MatchedKeyword, "label %q", tc.label)
	}
}

func TestClassify_Unmatched(t *testing.T) {
	c := classify.New(nil)

	res := c.Classify("completely unrelated line item")
	assert.Equal(t, classify.UnclassifiedPath, res.CategoryPath)
	assert.Equal(t, classify.RequiresManualReview, res.Treatment)
	assert.Equal(t, classify.ConfidenceNone, res.Confidence)
	assert.False(t, res.IsTip())
}

func TestClassify_IsTip(t *testing.T) {
	c := classify.New(nil)
	assert.True(t, c.Classify("tip pool share").IsTip())
	assert.True(t, c.Classify("discretionary payment").IsTip())
	assert.False(t, c.Classify("weekend premium").IsTip())
}

func TestClassify_LongestKeywordWins(t *testing.T) {
	// "tip pool" and "tip" both match; the longer keyword must be reported.
	c := classify.New(nil)
	res := c.Classify("tip pool")
	assert.Equal(t, "tip pool", res.MatchedKeyword)
}

func TestSplitRatio(t *testing.T) {
	c := classify.New(nil)

	cases := []struct {
		label string
		ratio string
		key   string
	}{
		{"time and a half overtime", "0.67", "time_and_half"},
		{"double time sunday", "0.50", "double_time"}, // table order: double_time before weekend
		{"night shift premium", "0.80", "shift"},
		{"weekend premium", "0.75", "weekend"},
	}
	for _, tc := range cases {
		ratio, key, matched := c.SplitRatio(tc.label)
		require.True(t, matched, "label %q", tc.label)
		assert.Equal(t, tc.key, key, "label %q", tc.label)
		assert.True(t, ratio.Equal(nmw.MustDecimal(tc.ratio)), "label %q: got %s", tc.label, ratio)
	}
}

func TestSplitRatio_DefaultFallback(t *testing.T) {
	c := classify.New(nil)
	ratio, key, matched := c.SplitRatio("standby premium")
	assert.False(t, matched)
	assert.Equal(t, "default", key)
	assert.True(t, ratio.Equal(nmw.MustDecimal("0.67")), "got %s", ratio)
}

func TestCompile_RejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"wrong version": `{"version": 2, "rules": [], "default_premium_ratio": "0.67"}`,
		"bad treatment": `{"version": 1, "rules": [{"category_path": "x", "keywords": ["x"], "treatment": "magic", "confidence": "high"}], "default_premium_ratio": "0.67"}`,
		"ratio above 1": `{"version": 1, "rules": [{"category_path": "x", "keywords": ["x"], "treatment": "full_inclusion", "confidence": "high"}], "premium_ratios": [{"key": "k", "keywords": ["k"], "basic_ratio": "1.5"}], "default_premium_ratio": "0.67"}`,
		"not even json": `{`,
	}
	for name, raw := range cases {
		_, err := classify.Compile([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestDefaultRuleset_Valid(t *testing.T) {
	rs := classify.DefaultRuleset()
	require.NotNil(t, rs)
	assert.Equal(t, 1, rs.Version)
}
