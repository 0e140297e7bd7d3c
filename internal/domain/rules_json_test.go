package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodePricingRules(t *testing.T) {
	raw := []byte(`[
		{"kind":"add","id":"rush","label":"Rush fee","flat":100,"condition":{"deliveryIn":["express"]}},
		{"kind":"multiply","label":"Enterprise","multiplier":1.2,"condition":{"features":{"allOf":["payment"],"anyOf":["seo","chatbot"]},"minPages":5,"maxPages":20}},
		{"kind":"discount","percentOfSubtotal":10,"condition":{"websiteTypeIn":["portfolio"]}}
	]`)

	rules, err := DecodePricingRules(raw)
	if err != nil {
		t.Fatalf("DecodePricingRules: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	add, ok := rules[0].(AddRule)
	if !ok || add.Flat != 100 || add.Label != "Rush fee" || add.Condition.DeliveryIn[0] != "express" {
		t.Fatalf("unexpected add rule %#v", rules[0])
	}
	mul, ok := rules[1].(MultiplyRule)
	if !ok || mul.Multiplier != 1.2 || *mul.Condition.MinPages != 5 || mul.Condition.FeaturesAnyOf[1] != "chatbot" {
		t.Fatalf("unexpected multiply rule %#v", rules[1])
	}
	if rules[2].Kind() != RuleKindDiscount {
		t.Fatalf("expected discount, got %s", rules[2].Kind())
	}
}

func TestDecodePricingRulesRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"malformed":        `[{"kind":"add"`,
		"missing kind":     `[{"flat":10}]`,
		"unknown kind":     `[{"kind":"tax","flat":10}]`,
		"unknown field":    `[{"kind":"add","flat":10,"bonus":1}]`,
		"negative flat":    `[{"kind":"add","flat":-1}]`,
		"zero multiplier":  `[{"kind":"multiply","multiplier":0}]`,
		"percent too high": `[{"kind":"discount","percentOfSubtotal":150}]`,
		"page bounds":      `[{"kind":"add","flat":5,"condition":{"minPages":9,"maxPages":3}}]`,
		"empty add":        `[{"kind":"add"}]`,
		"mixed multiply":   `[{"kind":"multiply","multiplier":2,"flat":5}]`,
		"not a list":       `{"kind":"add","flat":1}`,
		"trailing":         `[] []`,
		"stray bracket":    `[]]`,
		"huge multiplier":  `[{"kind":"multiply","label":"Boost","multiplier":1e17}]`,
		"huge flat":        `[{"kind":"add","flat":9223372036854775807}]`,
		"huge per page":    `[{"kind":"add","perPage":1000000001}]`,
		"huge discount":    `[{"kind":"discount","flat":1000000001}]`,
	}
	for name, raw := range cases {
		if _, err := DecodePricingRules([]byte(raw)); !errors.Is(err, ErrInvalidPricingRule) {
			t.Fatalf("%s: expected ErrInvalidPricingRule, got %v", name, err)
		}
	}
}

func TestDecodePricingRulesEmpty(t *testing.T) {
	for _, raw := range []string{"", "  ", "[]"} {
		rules, err := DecodePricingRules([]byte(raw))
		if err != nil || len(rules) != 0 {
			t.Fatalf("%q: expected empty list, got %v %v", raw, rules, err)
		}
	}
}

func TestEncodePricingRulesMatchesDecoder(t *testing.T) {
	lo, hi := 2, 8
	rules := []PricingRule{
		AddRule{RuleMeta: RuleMeta{ID: "a", Label: "Pages", Condition: &RuleCondition{MinPages: &lo, MaxPages: &hi}}, PerPage: 20},
		DiscountRule{RuleMeta: RuleMeta{ID: "d"}, Flat: 50, PercentOfSubtotal: 5},
	}
	raw, err := EncodePricingRules(rules)
	if err != nil {
		t.Fatalf("EncodePricingRules: %v", err)
	}
	decoded, err := DecodePricingRules(raw)
	if err != nil {
		t.Fatalf("DecodePricingRules: %v", err)
	}
	if !reflect.DeepEqual(decoded, rules) {
		t.Fatalf("decoded rules differ:\n%#v\n%#v", decoded, rules)
	}
}

func TestRuleConditionMatchesNil(t *testing.T) {
	var cond *RuleCondition
	if !cond.Matches(QuoteConfig{}) {
		t.Fatalf("nil condition must match every config")
	}
}

func TestValidatePricingRuleAcceptsBounds(t *testing.T) {
	rules := []PricingRule{
		AddRule{Flat: MaxAmount, PerPage: MaxAmount},
		MultiplyRule{Multiplier: MaxRuleMultiplier},
		DiscountRule{Flat: MaxAmount},
	}
	for _, rule := range rules {
		if err := ValidatePricingRule(rule); err != nil {
			t.Fatalf("%#v: unexpected error %v", rule, err)
		}
	}
}
