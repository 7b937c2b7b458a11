package classify

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLASSIFIER - classify(label) -> {categoryPath, treatment, confidence}
// =============================================================================

// UnclassifiedPath is the category path returned when no rule matches.
const UnclassifiedPath = "unclassified"

// Result is the outcome of classifying one pay-component label.
type Result struct {
	CategoryPath   string     `json:"category_path"`
	Treatment      Treatment  `json:"treatment"`
	Confidence     Confidence `json:"confidence"`
	MatchedKeyword string     `json:"matched_keyword,omitempty"`
}

// IsTip reports whether the classification landed anywhere under "tips.".
func (r Result) IsTip() bool { return strings.HasPrefix(r.CategoryPath, "tips.") }

// Classifier answers classification queries against a compiled Ruleset.
// It is immutable and safe for concurrent use.
type Classifier struct {
	rules *Ruleset
}

func New(rules *Ruleset) *Classifier {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Classifier{rules: rules}
}

// Classify matches a free-text label against the rule table. Rules are
// scanned in table order; the first rule with a contained keyword wins.
// An unmatched label classifies as unclassified / requires_manual_review
// with no confidence.
func (c *Classifier) Classify(label string) Result {
	norm := NormalizeLabel(label)
	if norm == "" {
		return Result{CategoryPath: UnclassifiedPath, Treatment: RequiresManualReview, Confidence: ConfidenceNone}
	}
	for _, rule := range c.rules.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(norm, kw) {
				return Result{
					CategoryPath:   rule.CategoryPath,
					Treatment:      rule.Treatment,
					Confidence:     rule.Confidence,
					MatchedKeyword: kw,
				}
			}
		}
	}
	return Result{CategoryPath: UnclassifiedPath, Treatment: RequiresManualReview, Confidence: ConfidenceNone}
}

// SplitRatio resolves the basic-rate portion ratio for a premium label from
// the keyword-driven ratio table. The second return names the matched ratio
// key; matched is false when the default ratio applied.
//
// The ratio is a heuristic, not the worker's contracted basic rate, so
// callers must flag any split derived from it as estimated.
func (c *Classifier) SplitRatio(label string) (ratio decimal.Decimal, key string, matched bool) {
	norm := NormalizeLabel(label)
	for _, pr := range c.rules.PremiumRatios {
		for _, kw := range pr.Keywords {
			if strings.Contains(norm, kw) {
				return pr.BasicRatio, pr.Key, true
			}
		}
	}
	return c.rules.DefaultPremiumRatio, "default", false
}

// Version returns the rule table version the classifier was compiled from.
func (c *Classifier) Version() int { return c.rules.Version }
