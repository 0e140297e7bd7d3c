package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

const maxPricingRules = 200

// PricingRuleServiceDeps bundles constructor inputs for the pricing rule service.
type PricingRuleServiceDeps struct {
	Rules  repositories.PricingRuleRepository
	Logger func(context.Context, string, map[string]any)
}

type pricingRuleService struct {
	repo   repositories.PricingRuleRepository
	logger func(context.Context, string, map[string]any)
}

var _ PricingRuleService = (*pricingRuleService)(nil)

// NewPricingRuleService constructs the rule store service.
func NewPricingRuleService(deps PricingRuleServiceDeps) (PricingRuleService, error) {
	if deps.Rules == nil {
		return nil, ErrPricingRuleRepositoryMissing
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &pricingRuleService{repo: deps.Rules, logger: logger}, nil
}

func (s *pricingRuleService) ListRules(ctx context.Context) ([]PricingRule, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("pricing rules: load: %w", err)
	}
	return rules, nil
}

// ReplaceRulesJSON decodes raw and swaps the stored list. On any error the store keeps its previous value.
func (s *pricingRuleService) ReplaceRulesJSON(ctx context.Context, raw []byte) ([]PricingRule, error) {
	rules, err := domain.DecodePricingRules(raw)
	if err != nil {
		s.logger(ctx, "pricing_rules.rejected", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrPricingRuleInvalid, err)
	}
	return s.ReplaceRules(ctx, rules)
}

func (s *pricingRuleService) ReplaceRules(ctx context.Context, rules []PricingRule) ([]PricingRule, error) {
	if len(rules) > maxPricingRules {
		return nil, fmt.Errorf("%w: at most %d rules are allowed", ErrPricingRuleInvalid, maxPricingRules)
	}
	var errs []error
	for i, rule := range rules {
		if err := domain.ValidatePricingRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrPricingRuleInvalid, errors.Join(errs...))
	}

	stored := append([]PricingRule{}, rules...)
	if err := s.repo.Replace(ctx, stored); err != nil {
		return nil, fmt.Errorf("pricing rules: store: %w", err)
	}
	s.logger(ctx, "pricing_rules.replaced", map[string]any{"count": len(stored)})
	return stored, nil
}
