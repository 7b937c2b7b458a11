package calc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/classify"
	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// TRONC EXCLUSION - Tips/tronc/gratuities never count toward NMW pay
// =============================================================================

// troncFallbackKeywords is the fixed keyword set used when the rule table
// does not classify a component under tips. Matches here are flagged for
// manual review rather than excluded automatically.
var troncFallbackKeywords = []string{
	"tronc", "tips", "tip", "gratuities", "gratuity",
	"service charge", "cover charge", "tip pool", "tip share", "tip jar",
}

// ImpactLevel categorizes the exclusion's share of gross pay.
type ImpactLevel string

const (
	ImpactNone        ImpactLevel = "none"
	ImpactMinimal     ImpactLevel = "minimal"
	ImpactModerate    ImpactLevel = "moderate"
	ImpactSignificant ImpactLevel = "significant"
	ImpactCritical    ImpactLevel = "critical"
)

// TroncComponent is one tip-like component the processor found.
type TroncComponent struct {
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	CategoryPath   string          `json:"category_path"`
	MatchedKeyword string          `json:"matched_keyword,omitempty"`
	AutoExcluded   bool            `json:"auto_excluded"`
}

// TroncResult reports the exclusion outcome.
type TroncResult struct {
	GrossPay         decimal.Decimal  `json:"gross_pay"`
	Excluded         []TroncComponent `json:"excluded,omitempty"`
	FlaggedForReview []TroncComponent `json:"flagged_for_review,omitempty"`
	TotalExcluded    decimal.Decimal  `json:"total_excluded"`
	TotalFlagged     decimal.Decimal  `json:"total_flagged"`
	AdjustedPay      decimal.Decimal  `json:"adjusted_pay"`
	ExclusionPct     decimal.Decimal  `json:"exclusion_pct"`
	Impact           ImpactLevel      `json:"impact"`
	Warnings         []nmw.Warning    `json:"warnings,omitempty"`
}

// TroncExclusionProcessor detects tip/tronc/gratuity components and removes
// rule-confirmed ones from NMW-eligible pay.
type TroncExclusionProcessor struct {
	classifier *classify.Classifier
}

func NewTroncExclusionProcessor(c *classify.Classifier) *TroncExclusionProcessor {
	return &TroncExclusionProcessor{classifier: c}
}

// Process scans components for tips. Rule-based matches under "tips." with
// high confidence are excluded automatically (subtracted from gross for NMW
// purposes). Every other match - lower-confidence rule hits and keyword
// fallback hits - is flagged for manual review and NOT subtracted; the
// amount stays in pay pending confirmation.
func (p *TroncExclusionProcessor) Process(grossPay decimal.Decimal, components RawPayComponents) TroncResult {
	res := TroncResult{GrossPay: grossPay}

	names := make([]string, 0, len(components))
	for name, v := range components {
		if v.IsZero() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		amount := components[name]
		cls := p.classifier.Classify(name)

		switch {
		case cls.IsTip() && cls.Confidence == classify.ConfidenceHigh:
			tc := TroncComponent{
				Name:           name,
				Amount:         amount,
				CategoryPath:   cls.CategoryPath,
				MatchedKeyword: cls.MatchedKeyword,
				AutoExcluded:   true,
			}
			res.Excluded = append(res.Excluded, tc)
			res.TotalExcluded = res.TotalExcluded.Add(amount)

		case cls.IsTip(), matchesTroncKeyword(name):
			tc := TroncComponent{
				Name:           name,
				Amount:         amount,
				CategoryPath:   cls.CategoryPath,
				MatchedKeyword: cls.MatchedKeyword,
			}
			res.FlaggedForReview = append(res.FlaggedForReview, tc)
			res.TotalFlagged = res.TotalFlagged.Add(amount)
			res.Warnings = append(res.Warnings, nmw.Warning{
				Source:   nmw.ComponentTronc,
				Code:     nmw.IssueTroncExcluded,
				Severity: nmw.SeverityMedium,
				Message: fmt.Sprintf("component %q (%s) looks like a tip but was not excluded automatically; confirm before relying on this result",
					name, nmw.FormatGBP(amount)),
			})
		}
	}

	res.AdjustedPay = grossPay.Sub(res.TotalExcluded)
	res.ExclusionPct = nmw.RatioOf(res.TotalExcluded, grossPay).Mul(decimal.NewFromInt(100))
	res.Impact = impactFor(res.ExclusionPct)

	if res.TotalExcluded.Sign() > 0 {
		res.Warnings = append(res.Warnings, nmw.Warning{
			Source:   nmw.ComponentTronc,
			Code:     nmw.IssueTroncExcluded,
			Severity: nmw.SeverityCritical,
			Message: fmt.Sprintf("%s of tips/tronc excluded from NMW-eligible pay (%s%% of gross)",
				nmw.FormatGBP(res.TotalExcluded), res.ExclusionPct.StringFixed(1)),
		})
		if res.ExclusionPct.GreaterThanOrEqual(decimal.NewFromInt(15)) {
			res.Warnings = append(res.Warnings, nmw.Warning{
				Source:   nmw.ComponentTronc,
				Code:     nmw.IssueTroncExcluded,
				Severity: nmw.SeverityHigh,
				Message:  "tips make up a large share of reported pay; base pay alone may not reach the required rate",
			})
		}
	}
	return res
}

func matchesTroncKeyword(name string) bool {
	norm := classify.NormalizeLabel(name)
	for _, kw := range troncFallbackKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

func impactFor(pct decimal.Decimal) ImpactLevel {
	switch {
	case pct.Sign() <= 0:
		return ImpactNone
	case pct.LessThan(decimal.NewFromInt(5)):
		return ImpactMinimal
	case pct.LessThan(decimal.NewFromInt(20)):
		return ImpactModerate
	case pct.LessThan(decimal.NewFromInt(30)):
		return ImpactSignificant
	default:
		return ImpactCritical
	}
}
