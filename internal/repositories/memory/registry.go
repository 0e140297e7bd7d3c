// Package memory keeps every repository in process memory. It is the default
// backend for local runs and the reference behaviour the SQL and Firestore backends match.
package memory

import (
	"context"
	"time"

	"github.com/august-web/dev-quoteX/internal/repositories"
)

// Registry implements repositories.Registry with mutex-guarded maps and slices.
type Registry struct {
	overrides *CatalogOverrideRepository
	rules     *PricingRuleRepository
	requests  *RequestRepository
	events    *AnalyticsEventRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry returns an empty store.
func NewRegistry(clock func() time.Time) (*Registry, error) {
	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{{
		Name:  "store",
		Check: func(context.Context) error { return nil },
	}}, repositories.WithDependencyClock(clock))
	if err != nil {
		return nil, err
	}
	return &Registry{
		overrides: NewCatalogOverrideRepository(),
		rules:     NewPricingRuleRepository(),
		requests:  NewRequestRepository(),
		events:    NewAnalyticsEventRepository(),
		health:    health,
	}, nil
}

func (r *Registry) Close(context.Context) error { return nil }

func (r *Registry) CatalogOverrides() repositories.CatalogOverrideRepository { return r.overrides }
func (r *Registry) PricingRules() repositories.PricingRuleRepository         { return r.rules }
func (r *Registry) Requests() repositories.RequestRepository                 { return r.requests }
func (r *Registry) AnalyticsEvents() repositories.AnalyticsEventRepository   { return r.events }
func (r *Registry) Health() repositories.HealthRepository                    { return r.health }
