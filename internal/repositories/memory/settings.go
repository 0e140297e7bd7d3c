package memory

import (
	"context"
	"sync"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

// CatalogOverrideRepository holds the single overrides document.
type CatalogOverrideRepository struct {
	mu        sync.RWMutex
	overrides domain.CatalogOverrides
}

var _ repositories.CatalogOverrideRepository = (*CatalogOverrideRepository)(nil)

func NewCatalogOverrideRepository() *CatalogOverrideRepository {
	return &CatalogOverrideRepository{}
}

func (r *CatalogOverrideRepository) Get(ctx context.Context) (domain.CatalogOverrides, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogOverrides{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overrides.Clone(), nil
}

func (r *CatalogOverrideRepository) Replace(ctx context.Context, overrides domain.CatalogOverrides) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = overrides.Clone()
	return nil
}

// PricingRuleRepository holds the ordered rule list. Rules are immutable values once
// stored, so callers receive a fresh slice but share the rule structs.
type PricingRuleRepository struct {
	mu    sync.RWMutex
	rules []domain.PricingRule
}

var _ repositories.PricingRuleRepository = (*PricingRuleRepository)(nil)

func NewPricingRuleRepository() *PricingRuleRepository {
	return &PricingRuleRepository{}
}

func (r *PricingRuleRepository) List(ctx context.Context) ([]domain.PricingRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.PricingRule(nil), r.rules...), nil
}

func (r *PricingRuleRepository) Replace(ctx context.Context, rules []domain.PricingRule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := append([]domain.PricingRule(nil), rules...)
	r.mu.Lock()
	r.rules = next
	r.mu.Unlock()
	return nil
}
