package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrInvalidPricingRule is wrapped by every decoding and validation failure.
var ErrInvalidPricingRule = errors.New("invalid pricing rule")

const (
	// MaxAmount caps every operator entered price and rule amount.
	MaxAmount int64 = 1_000_000_000
	// MaxRuleMultiplier caps the factor of a multiply rule.
	MaxRuleMultiplier = 100.0
)

type ruleConditionJSON struct {
	WebsiteTypeIn []string            `json:"websiteTypeIn,omitempty"`
	DeliveryIn    []string            `json:"deliveryIn,omitempty"`
	Features      *featureMatchesJSON `json:"features,omitempty"`
	MinPages      *int                `json:"minPages,omitempty"`
	MaxPages      *int                `json:"maxPages,omitempty"`
}

type featureMatchesJSON struct {
	AllOf []string `json:"allOf,omitempty"`
	AnyOf []string `json:"anyOf,omitempty"`
}

type pricingRuleJSON struct {
	Kind              RuleKind           `json:"kind"`
	ID                string             `json:"id,omitempty"`
	Label             string             `json:"label,omitempty"`
	Condition         *ruleConditionJSON `json:"condition,omitempty"`
	Flat              *int64             `json:"flat,omitempty"`
	PerPage           *int64             `json:"perPage,omitempty"`
	PercentOfSubtotal *float64           `json:"percentOfSubtotal,omitempty"`
	Multiplier        *float64           `json:"multiplier,omitempty"`
}

// DecodePricingRules parses and validates an ordered JSON rule list.
// Nothing is returned unless every rule is valid.
func DecodePricingRules(raw []byte) ([]PricingRule, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var docs []pricingRuleJSON
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPricingRule, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after rule list", ErrInvalidPricingRule)
	}
	rules := make([]PricingRule, 0, len(docs))
	for i, doc := range docs {
		rule, err := doc.toRule()
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidPricingRule, i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// EncodePricingRules renders rules in the same JSON shape DecodePricingRules accepts.
func EncodePricingRules(rules []PricingRule) ([]byte, error) {
	docs := make([]pricingRuleJSON, 0, len(rules))
	for _, rule := range rules {
		doc, err := ruleToJSON(rule)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return json.Marshal(docs)
}

// ValidatePricingRule checks amounts, multipliers, and condition bounds of a rule.
func ValidatePricingRule(rule PricingRule) error {
	switch r := rule.(type) {
	case AddRule:
		if r.Flat < 0 || r.PerPage < 0 {
			return errors.New("add amounts must be non-negative")
		}
		if r.Flat > MaxAmount || r.PerPage > MaxAmount {
			return fmt.Errorf("add amounts must not exceed %d", MaxAmount)
		}
		if err := validatePercent(r.PercentOfSubtotal); err != nil {
			return err
		}
	case MultiplyRule:
		if math.IsNaN(r.Multiplier) || math.IsInf(r.Multiplier, 0) || r.Multiplier <= 0 {
			return errors.New("multiplier must be greater than zero")
		}
		if r.Multiplier > MaxRuleMultiplier {
			return fmt.Errorf("multiplier must not exceed %g", MaxRuleMultiplier)
		}
	case DiscountRule:
		if r.Flat < 0 || r.Flat > MaxAmount {
			return fmt.Errorf("discount amount must be between 0 and %d", MaxAmount)
		}
		if err := validatePercent(r.PercentOfSubtotal); err != nil {
			return err
		}
	case nil:
		return errors.New("rule is nil")
	default:
		return fmt.Errorf("unsupported rule type %T", rule)
	}
	return validateCondition(rule.Meta().Condition)
}

func validatePercent(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return errors.New("percentOfSubtotal must be between 0 and 100")
	}
	return nil
}

func validateCondition(c *RuleCondition) error {
	if c == nil {
		return nil
	}
	if c.MinPages != nil && *c.MinPages < 0 {
		return errors.New("minPages must be non-negative")
	}
	if c.MaxPages != nil && *c.MaxPages < 0 {
		return errors.New("maxPages must be non-negative")
	}
	if c.MinPages != nil && c.MaxPages != nil && *c.MinPages > *c.MaxPages {
		return errors.New("minPages must not exceed maxPages")
	}
	return nil
}

func (doc pricingRuleJSON) toRule() (PricingRule, error) {
	meta := RuleMeta{
		ID:        strings.TrimSpace(doc.ID),
		Label:     strings.TrimSpace(doc.Label),
		Condition: doc.Condition.toCondition(),
	}
	var rule PricingRule
	switch doc.Kind {
	case RuleKindAdd:
		if doc.Multiplier != nil {
			return nil, errors.New("add rule does not accept multiplier")
		}
		if doc.Flat == nil && doc.PerPage == nil && doc.PercentOfSubtotal == nil {
			return nil, errors.New("add rule requires flat, perPage, or percentOfSubtotal")
		}
		rule = AddRule{RuleMeta: meta, Flat: deref(doc.Flat), PerPage: deref(doc.PerPage), PercentOfSubtotal: deref(doc.PercentOfSubtotal)}
	case RuleKindMultiply:
		if doc.Multiplier == nil {
			return nil, errors.New("multiply rule requires multiplier")
		}
		if doc.Flat != nil || doc.PerPage != nil || doc.PercentOfSubtotal != nil {
			return nil, errors.New("multiply rule only accepts multiplier")
		}
		rule = MultiplyRule{RuleMeta: meta, Multiplier: *doc.Multiplier}
	case RuleKindDiscount:
		if doc.Multiplier != nil || doc.PerPage != nil {
			return nil, errors.New("discount rule accepts flat or percentOfSubtotal only")
		}
		if doc.Flat == nil && doc.PercentOfSubtotal == nil {
			return nil, errors.New("discount rule requires flat or percentOfSubtotal")
		}
		rule = DiscountRule{RuleMeta: meta, Flat: deref(doc.Flat), PercentOfSubtotal: deref(doc.PercentOfSubtotal)}
	case "":
		return nil, errors.New("kind is required")
	default:
		return nil, fmt.Errorf("unknown kind %q", doc.Kind)
	}
	if err := ValidatePricingRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (c *ruleConditionJSON) toCondition() *RuleCondition {
	if c == nil {
		return nil
	}
	out := &RuleCondition{
		WebsiteTypeIn: c.WebsiteTypeIn,
		DeliveryIn:    c.DeliveryIn,
		MinPages:      c.MinPages,
		MaxPages:      c.MaxPages,
	}
	if c.Features != nil {
		out.FeaturesAllOf = c.Features.AllOf
		out.FeaturesAnyOf = c.Features.AnyOf
	}
	return out
}

func ruleToJSON(rule PricingRule) (pricingRuleJSON, error) {
	if rule == nil {
		return pricingRuleJSON{}, fmt.Errorf("%w: rule is nil", ErrInvalidPricingRule)
	}
	meta := rule.Meta()
	doc := pricingRuleJSON{
		Kind:      rule.Kind(),
		ID:        meta.ID,
		Label:     meta.Label,
		Condition: conditionToJSON(meta.Condition),
	}
	switch r := rule.(type) {
	case AddRule:
		doc.Flat = nonZero(r.Flat)
		doc.PerPage = nonZero(r.PerPage)
		doc.PercentOfSubtotal = nonZero(r.PercentOfSubtotal)
		if doc.Flat == nil && doc.PerPage == nil && doc.PercentOfSubtotal == nil {
			zero := int64(0)
			doc.Flat = &zero
		}
	case MultiplyRule:
		m := r.Multiplier
		doc.Multiplier = &m
	case DiscountRule:
		doc.Flat = nonZero(r.Flat)
		doc.PercentOfSubtotal = nonZero(r.PercentOfSubtotal)
		if doc.Flat == nil && doc.PercentOfSubtotal == nil {
			zero := int64(0)
			doc.Flat = &zero
		}
	default:
		return pricingRuleJSON{}, fmt.Errorf("%w: unsupported rule type %T", ErrInvalidPricingRule, rule)
	}
	return doc, nil
}

func conditionToJSON(c *RuleCondition) *ruleConditionJSON {
	if c == nil {
		return nil
	}
	out := &ruleConditionJSON{
		WebsiteTypeIn: c.WebsiteTypeIn,
		DeliveryIn:    c.DeliveryIn,
		MinPages:      c.MinPages,
		MaxPages:      c.MaxPages,
	}
	if len(c.FeaturesAllOf) > 0 || len(c.FeaturesAnyOf) > 0 {
		out.Features = &featureMatchesJSON{AllOf: c.FeaturesAllOf, AnyOf: c.FeaturesAnyOf}
	}
	return out
}

func deref[T int64 | float64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}

func nonZero[T int64 | float64](v T) *T {
	if v == 0 {
		return nil
	}
	return &v
}
