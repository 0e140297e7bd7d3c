package firestore

import (
	"context"
	"errors"
	"time"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	pfirestore "github.com/august-web/dev-quoteX/internal/platform/firestore"
	"github.com/august-web/dev-quoteX/internal/repositories"
	"github.com/august-web/dev-quoteX/internal/repositories/records"
)

const (
	settingsCollection  = "quote_settings"
	catalogOverridesDoc = "catalog_overrides"
	pricingRulesDoc     = "pricing_rules"
)

// CatalogOverrideRepository keeps the overrides in quote_settings/catalog_overrides.
type CatalogOverrideRepository struct {
	docs *pfirestore.Collection[records.Overrides]
	now  func() time.Time
}

var _ repositories.CatalogOverrideRepository = (*CatalogOverrideRepository)(nil)

func NewCatalogOverrideRepository(provider *pfirestore.Provider, clock func() time.Time) (*CatalogOverrideRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog override repository requires firestore provider")
	}
	return &CatalogOverrideRepository{docs: pfirestore.NewCollection[records.Overrides](provider, settingsCollection), now: clock}, nil
}

// Get returns empty overrides when the document has never been written.
func (r *CatalogOverrideRepository) Get(ctx context.Context) (domain.CatalogOverrides, error) {
	rec, err := r.docs.Get(ctx, catalogOverridesDoc)
	if repositories.IsNotFound(err) {
		return domain.CatalogOverrides{}, nil
	}
	if err != nil {
		return domain.CatalogOverrides{}, err
	}
	return rec.Domain(), nil
}

// Replace overwrites the document, so keys missing from overrides are removed.
func (r *CatalogOverrideRepository) Replace(ctx context.Context, overrides domain.CatalogOverrides) error {
	return r.docs.Set(ctx, catalogOverridesDoc, records.FromOverrides(overrides, r.now()))
}

// PricingRuleRepository keeps the encoded rule list in quote_settings/pricing_rules.
// A single document write makes Replace atomic.
type PricingRuleRepository struct {
	docs *pfirestore.Collection[records.Rules]
	now  func() time.Time
}

var _ repositories.PricingRuleRepository = (*PricingRuleRepository)(nil)

func NewPricingRuleRepository(provider *pfirestore.Provider, clock func() time.Time) (*PricingRuleRepository, error) {
	if provider == nil {
		return nil, errors.New("pricing rule repository requires firestore provider")
	}
	return &PricingRuleRepository{docs: pfirestore.NewCollection[records.Rules](provider, settingsCollection), now: clock}, nil
}

func (r *PricingRuleRepository) List(ctx context.Context) ([]domain.PricingRule, error) {
	rec, err := r.docs.Get(ctx, pricingRulesDoc)
	if repositories.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Domain()
}

func (r *PricingRuleRepository) Replace(ctx context.Context, rules []domain.PricingRule) error {
	rec, err := records.FromRules(rules, r.now())
	if err != nil {
		return err
	}
	return r.docs.Set(ctx, pricingRulesDoc, rec)
}
