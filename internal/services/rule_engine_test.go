package services

import (
	"testing"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestApplyRules_OrderMatters(t *testing.T) {
	cfg := QuoteConfig{WebsiteType: "business", PageCount: 1}
	add := AddRule{RuleMeta: domain.RuleMeta{Label: "Setup"}, Flat: 100}
	double := MultiplyRule{RuleMeta: domain.RuleMeta{Label: "Double"}, Multiplier: 2}

	addFirst := ApplyRules(cfg, []PricingRule{add, double}, 1000)
	multiplyFirst := ApplyRules(cfg, []PricingRule{double, add}, 1000)

	if addFirst.AdjustedSubtotal != 2200 {
		t.Fatalf("expected 2200, got %d", addFirst.AdjustedSubtotal)
	}
	if multiplyFirst.AdjustedSubtotal != 2100 {
		t.Fatalf("expected 2100, got %d", multiplyFirst.AdjustedSubtotal)
	}
	if len(addFirst.Lines) != 2 || addFirst.Lines[1].Price != 1100 {
		t.Fatalf("expected multiply delta line of 1100, got %+v", addFirst.Lines)
	}
}

func TestApplyRules_DiscountClampsAtZero(t *testing.T) {
	outcome := ApplyRules(QuoteConfig{}, []PricingRule{DiscountRule{Flat: 5000}}, 1200)
	if outcome.AdjustedSubtotal != 0 {
		t.Fatalf("expected clamp to zero, got %d", outcome.AdjustedSubtotal)
	}
	if len(outcome.Lines) != 1 || outcome.Lines[0].Item != "Discount" || outcome.Lines[0].Price != -1200 {
		t.Fatalf("unexpected lines: %+v", outcome.Lines)
	}
}

func TestApplyRules_PerPageAndDefaultLabel(t *testing.T) {
	cfg := QuoteConfig{PageCount: 6}
	outcome := ApplyRules(cfg, []PricingRule{AddRule{PerPage: 25}}, 1000)
	if outcome.AdjustedSubtotal != 1125 {
		t.Fatalf("expected 5 additional pages at 25, got %d", outcome.AdjustedSubtotal)
	}
	if outcome.Lines[0].Item != "Surcharge" {
		t.Fatalf("expected fallback label, got %q", outcome.Lines[0].Item)
	}
}

func TestApplyRules_UnlabelledMultiplyEmitsNoLine(t *testing.T) {
	outcome := ApplyRules(QuoteConfig{}, []PricingRule{MultiplyRule{Multiplier: 1.5}}, 100)
	if outcome.AdjustedSubtotal != 150 || len(outcome.Lines) != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestApplyRules_Conditions(t *testing.T) {
	cond := &domain.RuleCondition{
		DeliveryIn:    []string{"express"},
		FeaturesAllOf: []string{"payment"},
		FeaturesAnyOf: []string{"seo", "chatbot"},
		MinPages:      intPtr(3),
		MaxPages:      intPtr(10),
	}
	rule := AddRule{RuleMeta: domain.RuleMeta{Label: "Rush commerce", Condition: cond}, Flat: 300}

	matching := QuoteConfig{PageCount: 5, DeliveryOption: "express", SelectedFeatures: []string{"payment", "chatbot"}}
	if got := ApplyRules(matching, []PricingRule{rule}, 1000).AdjustedSubtotal; got != 1300 {
		t.Fatalf("expected rule to apply, got %d", got)
	}

	cases := map[string]QuoteConfig{
		"delivery": {PageCount: 5, DeliveryOption: "normal", SelectedFeatures: []string{"payment", "seo"}},
		"allOf":    {PageCount: 5, DeliveryOption: "express", SelectedFeatures: []string{"seo"}},
		"anyOf":    {PageCount: 5, DeliveryOption: "express", SelectedFeatures: []string{"payment"}},
		"minPages": {PageCount: 2, DeliveryOption: "express", SelectedFeatures: []string{"payment", "seo"}},
		"maxPages": {PageCount: 11, DeliveryOption: "express", SelectedFeatures: []string{"payment", "seo"}},
	}
	for name, cfg := range cases {
		if got := ApplyRules(cfg, []PricingRule{rule}, 1000).AdjustedSubtotal; got != 1000 {
			t.Fatalf("%s: expected rule to be skipped, got %d", name, got)
		}
	}
}

func TestApplyRules_PercentUsesRunningSubtotal(t *testing.T) {
	rules := []PricingRule{
		AddRule{RuleMeta: domain.RuleMeta{Label: "Ten"}, PercentOfSubtotal: 10},
		DiscountRule{RuleMeta: domain.RuleMeta{Label: "Half"}, PercentOfSubtotal: 50},
	}
	outcome := ApplyRules(QuoteConfig{}, rules, 1000)
	if outcome.AdjustedSubtotal != 550 {
		t.Fatalf("expected 550, got %d", outcome.AdjustedSubtotal)
	}
	if outcome.Lines[1].Price != -550 {
		t.Fatalf("expected discount of 550 on the running 1100, got %+v", outcome.Lines[1])
	}
}

func TestApplyRules_SaturatesInsteadOfOverflowing(t *testing.T) {
	rules := make([]PricingRule, maxPricingRules)
	for i := range rules {
		rules[i] = MultiplyRule{RuleMeta: domain.RuleMeta{Label: "Boost"}, Multiplier: domain.MaxRuleMultiplier}
	}
	outcome := ApplyRules(QuoteConfig{}, rules, domain.MaxAmount)
	if outcome.AdjustedSubtotal != maxQuoteAmount {
		t.Fatalf("expected saturation at %d, got %d", int64(maxQuoteAmount), outcome.AdjustedSubtotal)
	}
	for _, line := range outcome.Lines {
		if line.Price < 0 {
			t.Fatalf("unexpected negative line %+v", line)
		}
	}

	catalog := DefaultCatalog()
	result := CalculatePrice(QuoteConfig{WebsiteType: "portfolio", PageCount: 3, DeliveryOption: "express"}, catalog, rules)
	if result.Total <= 0 || result.Total > maxQuoteAmount {
		t.Fatalf("expected a saturated positive total, got %d", result.Total)
	}
}
