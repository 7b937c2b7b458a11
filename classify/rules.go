/*
Package classify maps free-text pay-component labels onto a category path, a
treatment, and a confidence level.

PURPOSE:
  One declarative keyword rule table drives every classification decision in
  the engine. Both the allowance/premium processor and the tronc exclusion
  processor call the same classifier, so "does this label look like a tip"
  is answered in exactly one place.

RULE TABLE:
  A versioned JSON document: ordered rules (category path + keyword list +
  treatment + confidence) plus the premium split-ratio table. A default
  table is embedded in the binary; deployments may override it with a file
  or a sqlite-backed copy.

MATCHING:
  Labels and keywords are normalized (lowercased, separators collapsed to
  single spaces) and rules are scanned in table order; the first rule with a
  contained keyword wins. Longer keywords are checked before shorter ones
  within a rule so "tip pool" beats "tip".

SEE ALSO:
  - classifier.go: Classification and premium split-ratio lookup
*/
package classify

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/nmw"
)

//go:embed rules.json
var embedded []byte

// =============================================================================
// TREATMENT AND CONFIDENCE
// =============================================================================

// Treatment says how a classified component enters the NMW calculation.
type Treatment string

const (
	FullInclusion       Treatment = "full_inclusion"
	FullExclusion       Treatment = "full_exclusion"
	BasicRateOnly       Treatment = "basic_rate_only"
	RequiresManualReview Treatment = "requires_manual_review"
)

// Confidence qualifies how sure the rule table is about a classification.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// =============================================================================
// RULE TABLE - Raw document shape and the compiled Ruleset
// =============================================================================

type rawRule struct {
	CategoryPath string     `json:"category_path"`
	Keywords     []string   `json:"keywords"`
	Treatment    Treatment  `json:"treatment"`
	Confidence   Confidence `json:"confidence"`
}

type rawRatio struct {
	Key        string   `json:"key"`
	Keywords   []string `json:"keywords"`
	BasicRatio string   `json:"basic_ratio"`
}

type rawRuleset struct {
	Version             int        `json:"version"`
	Rules               []rawRule  `json:"rules"`
	PremiumRatios       []rawRatio `json:"premium_ratios"`
	DefaultPremiumRatio string     `json:"default_premium_ratio"`
}

// Rule is one compiled classification rule.
type Rule struct {
	CategoryPath string
	Keywords     []string // normalized, longest first
	Treatment    Treatment
	Confidence   Confidence
}

// PremiumRatio maps premium keywords onto the basic-rate split ratio.
type PremiumRatio struct {
	Key        string
	Keywords   []string // normalized
	BasicRatio decimal.Decimal
}

// Ruleset is the compiled classification rule table.
type Ruleset struct {
	Version             int
	Rules               []Rule
	PremiumRatios       []PremiumRatio
	DefaultPremiumRatio decimal.Decimal
}

// =============================================================================
// LOADING
// =============================================================================

// DefaultRuleset compiles the embedded rule table. The embedded document is
// author-controlled, so a compile failure is a build defect and panics.
func DefaultRuleset() *Ruleset {
	rs, err := compile(embedded)
	if err != nil {
		panic(fmt.Sprintf("classify: embedded rules.json invalid: %v", err))
	}
	return rs
}

// LoadFile compiles a rule table from a JSON file, overriding the embedded
// default.
func LoadFile(path string) (*Ruleset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &nmw.InfrastructureError{Resource: "classification rules", Err: err}
	}
	rs, err := compile(raw)
	if err != nil {
		return nil, &nmw.InfrastructureError{Resource: "classification rules", Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return rs, nil
}

// Compile builds a Ruleset from a raw JSON document. Used by alternative
// sources (sqlite) that assemble the document themselves.
func Compile(raw []byte) (*Ruleset, error) {
	rs, err := compile(raw)
	if err != nil {
		return nil, &nmw.InfrastructureError{Resource: "classification rules", Err: err}
	}
	return rs, nil
}

func compile(raw []byte) (*Ruleset, error) {
	var doc rawRuleset
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Version != 1 {
		return nil, fmt.Errorf("unsupported rule table version %d (want 1)", doc.Version)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rule table holds no rules")
	}

	rs := &Ruleset{Version: doc.Version}
	for i, r := range doc.Rules {
		if r.CategoryPath == "" {
			return nil, fmt.Errorf("rule %d: missing category_path", i)
		}
		kws := normalizeKeywords(r.Keywords)
		if len(kws) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.CategoryPath)
		}
		switch r.Treatment {
		case FullInclusion, FullExclusion, BasicRateOnly, RequiresManualReview:
		default:
			return nil, fmt.Errorf("rule %d (%s): unknown treatment %q", i, r.CategoryPath, r.Treatment)
		}
		rs.Rules = append(rs.Rules, Rule{
			CategoryPath: r.CategoryPath,
			Keywords:     kws,
			Treatment:    r.Treatment,
			Confidence:   r.Confidence,
		})
	}

	for i, pr := range doc.PremiumRatios {
		ratio, err := decimal.NewFromString(pr.BasicRatio)
		if err != nil {
			return nil, fmt.Errorf("premium ratio %d (%s): %w", i, pr.Key, err)
		}
		if ratio.Sign() <= 0 || ratio.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("premium ratio %d (%s): ratio %s outside (0,1]", i, pr.Key, ratio)
		}
		rs.PremiumRatios = append(rs.PremiumRatios, PremiumRatio{
			Key:        pr.Key,
			Keywords:   normalizeKeywords(pr.Keywords),
			BasicRatio: ratio,
		})
	}

	rs.DefaultPremiumRatio = decimal.NewFromFloat(0.67)
	if doc.DefaultPremiumRatio != "" {
		d, err := decimal.NewFromString(doc.DefaultPremiumRatio)
		if err != nil {
			return nil, fmt.Errorf("default_premium_ratio: %w", err)
		}
		rs.DefaultPremiumRatio = d
	}
	return rs, nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = NormalizeLabel(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	// Longest first so "tip pool" is preferred over "tip" within a rule.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// NormalizeLabel lowercases a component label and collapses separator
// characters (underscores, hyphens, repeated whitespace) to single spaces.
func NormalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch r {
		case '_', '-', '/', '.', ',', '\t':
			r = ' '
		}
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
