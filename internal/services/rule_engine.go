package services

import "strings"

const (
	defaultSurchargeLabel = "Surcharge"
	defaultDiscountLabel  = "Discount"
)

// ApplyRules runs rules in order over subtotal. Each rule sees the running subtotal left by the
// previous one, so the order of the list is part of the pricing contract.
func ApplyRules(cfg QuoteConfig, rules []PricingRule, subtotal int64) RuleOutcome {
	running := float64(subtotal)
	var lines []BreakdownLine

	for _, rule := range rules {
		if rule == nil || !rule.Meta().Condition.Matches(cfg) {
			continue
		}
		switch r := rule.(type) {
		case AddRule:
			amount := float64(r.Flat) + float64(r.PerPage)*float64(cfg.AdditionalPages()) + r.PercentOfSubtotal/100*running
			if amount <= 0 {
				continue
			}
			running = min(running+amount, maxQuoteAmount)
			lines = append(lines, BreakdownLine{Item: ruleLabel(r.Label, defaultSurchargeLabel), Price: roundHalfUp(amount)})
		case MultiplyRule:
			next := min(running*r.Multiplier, maxQuoteAmount)
			delta := roundHalfUp(next - running)
			running = next
			if strings.TrimSpace(r.Label) != "" && delta != 0 {
				lines = append(lines, BreakdownLine{Item: r.Label, Price: delta})
			}
		case DiscountRule:
			amount := float64(r.Flat) + r.PercentOfSubtotal/100*running
			if amount > running {
				amount = running
			}
			if amount <= 0 {
				continue
			}
			running -= amount
			lines = append(lines, BreakdownLine{Item: ruleLabel(r.Label, defaultDiscountLabel), Price: -roundHalfUp(amount)})
		}
	}

	return RuleOutcome{AdjustedSubtotal: roundHalfUp(running), Lines: lines}
}

func ruleLabel(label, fallback string) string {
	if trimmed := strings.TrimSpace(label); trimmed != "" {
		return trimmed
	}
	return fallback
}
