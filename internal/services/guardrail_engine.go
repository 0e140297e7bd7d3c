package services

import (
	"fmt"
	"strings"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

// GuardSeverity distinguishes blocking guardrails from advisory ones.
type GuardSeverity int

const (
	// GuardBlocking adds Message to the result errors.
	GuardBlocking GuardSeverity = iota
	// GuardAdvisory only contributes its suggestion.
	GuardAdvisory
)

// Guardrail is a single declarative business check over a quote configuration.
type Guardrail struct {
	ID         string
	Severity   GuardSeverity
	Applies    func(QuoteConfig) bool
	Message    string
	Suggestion *Suggestion
}

// DefaultGuardrails returns the built-in guardrail set in evaluation order.
func DefaultGuardrails() []Guardrail {
	return []Guardrail{
		{
			ID:       "ecommerce-payment",
			Severity: GuardBlocking,
			Applies: func(cfg QuoteConfig) bool {
				return cfg.WebsiteType == "ecommerce" && !cfg.HasFeature("payment")
			},
			Message: "E-Commerce requires payment integration.",
			Suggestion: &Suggestion{
				ID:     "add-payment",
				Text:   "Add Payment Integration",
				Action: &SuggestionAction{Type: domain.ActionAddFeature, Value: "payment"},
			},
		},
		{
			ID:       "saas-express-pages",
			Severity: GuardBlocking,
			Applies: func(cfg QuoteConfig) bool {
				return cfg.WebsiteType == "saas" && cfg.DeliveryOption == "express" && cfg.PageCount > 5
			},
			Message: "Express delivery is unavailable for SaaS projects with more than 5 pages.",
			Suggestion: &Suggestion{
				ID:     "set-fast",
				Text:   "Switch to Fast Track delivery",
				Action: &SuggestionAction{Type: domain.ActionSetDelivery, Value: "fast"},
			},
		},
		{
			ID:       "dashboard-login",
			Severity: GuardAdvisory,
			Applies: func(cfg QuoteConfig) bool {
				return cfg.HasFeature("admin-dashboard") && !cfg.HasFeature("user-login")
			},
			Suggestion: &Suggestion{
				ID:     "add-login",
				Text:   "Add User Login/Registration for dashboard access",
				Action: &SuggestionAction{Type: domain.ActionAddFeature, Value: "user-login"},
			},
		},
		{
			ID:       "multilingual-pages",
			Severity: GuardAdvisory,
			Applies: func(cfg QuoteConfig) bool {
				return cfg.HasFeature("multilingual") && cfg.PageCount < 3
			},
			Suggestion: &Suggestion{
				ID:   "pages-multilingual",
				Text: "Consider at least 3 pages for multilingual sites",
			},
		},
	}
}

var builtinGuardrails = DefaultGuardrails()

// EvaluateConfig runs the built-in guardrails against cfg.
func EvaluateConfig(cfg QuoteConfig) GuardResult {
	return EvaluateGuardrails(cfg, builtinGuardrails)
}

// EvaluateGuardrails runs rails in order. The result slices are never nil so they encode as empty lists.
func EvaluateGuardrails(cfg QuoteConfig, rails []Guardrail) GuardResult {
	result := GuardResult{Errors: []string{}, Suggestions: []Suggestion{}}
	for _, rail := range rails {
		if rail.Applies == nil || !rail.Applies(cfg) {
			continue
		}
		if rail.Severity == GuardBlocking && rail.Message != "" {
			result.Errors = append(result.Errors, rail.Message)
		}
		if rail.Suggestion != nil {
			suggestion := *rail.Suggestion
			if rail.Suggestion.Action != nil {
				action := *rail.Suggestion.Action
				suggestion.Action = &action
			}
			result.Suggestions = append(result.Suggestions, suggestion)
		}
	}
	return result
}

// ApplySuggestion returns a copy of cfg with the remediation applied.
func ApplySuggestion(cfg QuoteConfig, action SuggestionAction) (QuoteConfig, error) {
	value := strings.TrimSpace(action.Value)
	if value == "" {
		return QuoteConfig{}, fmt.Errorf("%w: action value is required", ErrQuoteInvalidAction)
	}
	next := cfg.Clone()
	switch action.Type {
	case domain.ActionAddFeature:
		if !next.HasFeature(value) {
			next.SelectedFeatures = append(next.SelectedFeatures, value)
		}
	case domain.ActionSetDelivery:
		next.DeliveryOption = value
	default:
		return QuoteConfig{}, fmt.Errorf("%w: unsupported action %q", ErrQuoteInvalidAction, action.Type)
	}
	return next, nil
}
