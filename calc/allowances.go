package calc

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/compliance-engine/classify"
	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// ALLOWANCE / PREMIUM PROCESSOR - Classifier-driven component handling
// =============================================================================

// ComponentOutcome records how one raw pay component was handled.
type ComponentOutcome struct {
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Classification classify.Result `json:"classification"`

	// Premium split fields, populated only for basic_rate_only components.
	BasicPortion   decimal.Decimal `json:"basic_portion,omitempty"`
	PremiumPortion decimal.Decimal `json:"premium_portion,omitempty"`
	SplitRatioKey  string          `json:"split_ratio_key,omitempty"`
	Estimated      bool            `json:"estimated,omitempty"`
}

// AllowancePremiumResult totals the classified components.
//
// TotalExcluded amounts are reported but never subtracted elsewhere: an
// excluded component was never counted toward NMW pay in the first place.
type AllowancePremiumResult struct {
	Components      []ComponentOutcome `json:"components"`
	TotalIncluded   decimal.Decimal    `json:"total_included"`
	TotalExcluded   decimal.Decimal    `json:"total_excluded"`
	TotalBasic      decimal.Decimal    `json:"total_premium_basic"`
	TotalPremium    decimal.Decimal    `json:"total_premium_portion"`
	NetContribution decimal.Decimal    `json:"net_contribution"`
	Warnings        []nmw.Warning      `json:"warnings,omitempty"`
}

// AllowancePremiumProcessor splits premium pay into basic/premium portions
// and totals eligible allowances, using the shared classifier.
type AllowancePremiumProcessor struct {
	classifier *classify.Classifier
}

func NewAllowancePremiumProcessor(c *classify.Classifier) *AllowancePremiumProcessor {
	return &AllowancePremiumProcessor{classifier: c}
}

// Process classifies every non-zero raw component and totals the outcome.
//
//   - full_inclusion  -> TotalIncluded
//   - full_exclusion  -> TotalExcluded (reported only)
//   - basic_rate_only -> split by the keyword ratio table; the basic portion
//     (rounded to 2 decimals) counts toward NMW, the premium portion does not
//   - manual review / unclassified -> warning, no contribution
//
// The net NMW-eligible contribution is TotalIncluded + TotalBasic.
// Every premium split is flagged as estimated: the ratio is heuristic, not
// derived from the worker's contracted basic rate.
func (p *AllowancePremiumProcessor) Process(components RawPayComponents) AllowancePremiumResult {
	var res AllowancePremiumResult

	names := make([]string, 0, len(components))
	for name, v := range components {
		if v.IsZero() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names) // deterministic component order

	for _, name := range names {
		amount := components[name]
		cls := p.classifier.Classify(name)
		out := ComponentOutcome{Name: name, Amount: amount, Classification: cls}

		switch cls.Treatment {
		case classify.FullInclusion:
			res.TotalIncluded = res.TotalIncluded.Add(amount)

		case classify.FullExclusion:
			res.TotalExcluded = res.TotalExcluded.Add(amount)

		case classify.BasicRateOnly:
			ratio, key, matched := p.classifier.SplitRatio(name)
			out.BasicPortion = nmw.Round2(amount.Mul(ratio))
			out.PremiumPortion = amount.Sub(out.BasicPortion)
			out.SplitRatioKey = key
			out.Estimated = true
			res.TotalBasic = res.TotalBasic.Add(out.BasicPortion)
			res.TotalPremium = res.TotalPremium.Add(out.PremiumPortion)

			msg := fmt.Sprintf("premium %q split with heuristic ratio %s (%s); manual verification advised, the split is not derived from the contracted basic rate",
				name, ratio, key)
			if !matched {
				msg = fmt.Sprintf("premium %q split with default ratio %s; no ratio keyword matched, manual verification advised", name, ratio)
			}
			res.Warnings = append(res.Warnings, nmw.Warning{
				Source:   nmw.ComponentAllowances,
				Code:     nmw.IssueEstimatedPremiumSplit,
				Severity: nmw.SeverityMedium,
				Message:  msg,
			})

		default: // requires_manual_review, including unclassified
			res.Warnings = append(res.Warnings, nmw.Warning{
				Source:   nmw.ComponentAllowances,
				Code:     nmw.IssueUnclassifiedComponent,
				Severity: nmw.SeverityMedium,
				Message:  fmt.Sprintf("component %q (%s) could not be classified and was not counted", name, nmw.FormatGBP(amount)),
			})
		}

		if cls.Confidence == classify.ConfidenceLow {
			res.Warnings = append(res.Warnings, nmw.Warning{
				Source:   nmw.ComponentAllowances,
				Code:     nmw.IssueUnclassifiedComponent,
				Severity: nmw.SeverityMedium,
				Message:  fmt.Sprintf("low-confidence classification of %q as %s; review advised", name, cls.CategoryPath),
			})
		}

		res.Components = append(res.Components, out)
	}

	res.NetContribution = res.TotalIncluded.Add(res.TotalBasic)
	return res
}
