package domain

// QuoteConfig is the structured input collected by the quote wizard.
// Region and Currency are presentation hints and never influence the computed total.
type QuoteConfig struct {
	WebsiteType      string
	PageCount        int
	SelectedFeatures []string
	DeliveryOption   string
	SelectedExtras   []string
	Region           string
	Currency         string
}

// HasFeature reports whether the feature id is selected.
func (c QuoteConfig) HasFeature(id string) bool {
	return containsString(c.SelectedFeatures, id)
}

// AdditionalPages returns the number of pages beyond the first, which is included in the base price.
func (c QuoteConfig) AdditionalPages() int {
	if c.PageCount <= 1 {
		return 0
	}
	return c.PageCount - 1
}

// Clone returns a copy whose slices can be mutated without touching the receiver.
func (c QuoteConfig) Clone() QuoteConfig {
	out := c
	out.SelectedFeatures = append([]string(nil), c.SelectedFeatures...)
	out.SelectedExtras = append([]string(nil), c.SelectedExtras...)
	return out
}

// BreakdownLine is a labelled, signed monetary amount.
type BreakdownLine struct {
	Item  string
	Price int64
}

// PriceResult captures every intermediate value of a price computation.
type PriceResult struct {
	BasePrice            int64
	PagesPrice           int64
	FeaturesPrice        int64
	ExtrasPrice          int64
	DeliveryMultiplier   float64
	Subtotal             int64
	RuleAdjustedSubtotal int64
	Total                int64
	Breakdown            []BreakdownLine
}

// RuleOutcome is the result of running the rule list over a subtotal.
type RuleOutcome struct {
	AdjustedSubtotal int64
	Lines            []BreakdownLine
}

// RuleKind discriminates pricing rule variants.
type RuleKind string

const (
	// RuleKindAdd adds a flat, per-page, or percent-of-subtotal amount.
	RuleKindAdd RuleKind = "add"
	// RuleKindMultiply scales the running subtotal.
	RuleKindMultiply RuleKind = "multiply"
	// RuleKindDiscount subtracts a flat or percent-of-subtotal amount, floored at zero.
	RuleKindDiscount RuleKind = "discount"
)

// PricingRule is one of AddRule, MultiplyRule, or DiscountRule.
type PricingRule interface {
	Kind() RuleKind
	Meta() RuleMeta
	isPricingRule()
}

// RuleMeta carries the fields shared by every rule variant.
type RuleMeta struct {
	ID        string
	Label     string
	Condition *RuleCondition
}

// Meta returns the shared rule fields.
func (m RuleMeta) Meta() RuleMeta { return m }

// RuleCondition is a conjunction of predicates; a nil or empty field is unconstrained.
type RuleCondition struct {
	WebsiteTypeIn []string
	DeliveryIn    []string
	FeaturesAllOf []string
	FeaturesAnyOf []string
	MinPages      *int
	MaxPages      *int
}

// Matches reports whether every specified predicate holds for cfg.
func (c *RuleCondition) Matches(cfg QuoteConfig) bool {
	if c == nil {
		return true
	}
	if len(c.WebsiteTypeIn) > 0 && !containsString(c.WebsiteTypeIn, cfg.WebsiteType) {
		return false
	}
	if len(c.DeliveryIn) > 0 && !containsString(c.DeliveryIn, cfg.DeliveryOption) {
		return false
	}
	for _, feature := range c.FeaturesAllOf {
		if !cfg.HasFeature(feature) {
			return false
		}
	}
	if len(c.FeaturesAnyOf) > 0 {
		matched := false
		for _, feature := range c.FeaturesAnyOf {
			if cfg.HasFeature(feature) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if c.MinPages != nil && cfg.PageCount < *c.MinPages {
		return false
	}
	if c.MaxPages != nil && cfg.PageCount > *c.MaxPages {
		return false
	}
	return true
}

// AddRule adds Flat + PerPage*additionalPages + PercentOfSubtotal% of the running subtotal.
type AddRule struct {
	RuleMeta
	Flat              int64
	PerPage           int64
	PercentOfSubtotal float64
}

// Kind implements PricingRule.
func (AddRule) Kind() RuleKind { return RuleKindAdd }
func (AddRule) isPricingRule() {}

// MultiplyRule scales the running subtotal by Multiplier.
type MultiplyRule struct {
	RuleMeta
	Multiplier float64
}

// Kind implements PricingRule.
func (MultiplyRule) Kind() RuleKind { return RuleKindMultiply }
func (MultiplyRule) isPricingRule() {}

// DiscountRule subtracts Flat + PercentOfSubtotal% of the running subtotal.
type DiscountRule struct {
	RuleMeta
	Flat              int64
	PercentOfSubtotal float64
}

// Kind implements PricingRule.
func (DiscountRule) Kind() RuleKind { return RuleKindDiscount }
func (DiscountRule) isPricingRule() {}

// SuggestionActionType enumerates one-click remediations.
type SuggestionActionType string

const (
	// ActionAddFeature selects an additional feature.
	ActionAddFeature SuggestionActionType = "addFeature"
	// ActionSetDelivery switches the delivery option.
	ActionSetDelivery SuggestionActionType = "setDelivery"
)

// SuggestionAction is the remediation attached to a suggestion. Value is a feature or delivery id depending on Type.
type SuggestionAction struct {
	Type  SuggestionActionType
	Value string
}

// Suggestion advises the user and optionally offers a one-click fix.
type Suggestion struct {
	ID     string
	Text   string
	Action *SuggestionAction
}

// GuardResult lists blocking errors and non-blocking suggestions for a config.
type GuardResult struct {
	Errors      []string
	Suggestions []Suggestion
}

// Blocking reports whether the config must not progress.
func (r GuardResult) Blocking() bool {
	return len(r.Errors) > 0
}

// QuoteDocument is the flat projection consumed by the PDF exporter.
type QuoteDocument struct {
	Title     string
	Total     int64
	Breakdown []BreakdownLine
	Delivery  string
	Pages     int
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
