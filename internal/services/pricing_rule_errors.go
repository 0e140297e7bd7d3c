package services

import "errors"

var (
	// ErrPricingRuleRepositoryMissing indicates the rule repository dependency is absent.
	ErrPricingRuleRepositoryMissing = errors.New("pricing rules: repository is not configured")
	// ErrPricingRuleInvalid signals malformed rule JSON or a rule that fails validation.
	ErrPricingRuleInvalid = errors.New("pricing rules: invalid rule list")
)
