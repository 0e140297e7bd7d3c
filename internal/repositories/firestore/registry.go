// Package firestore implements the repositories on Cloud Firestore.
package firestore

import (
	"context"
	"time"

	pfirestore "github.com/august-web/dev-quoteX/internal/platform/firestore"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

// Registry implements repositories.Registry on a shared provider.
type Registry struct {
	provider  *pfirestore.Provider
	overrides *CatalogOverrideRepository
	rules     *PricingRuleRepository
	requests  *RequestRepository
	events    *AnalyticsEventRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry wires every repository and a readiness probe that reads the request collection.
func NewRegistry(provider *pfirestore.Provider, clock func() time.Time) (*Registry, error) {
	if clock == nil {
		clock = time.Now
	}
	overrides, err := NewCatalogOverrideRepository(provider, clock)
	if err != nil {
		return nil, err
	}
	rules, err := NewPricingRuleRepository(provider, clock)
	if err != nil {
		return nil, err
	}
	requests, err := NewRequestRepository(provider)
	if err != nil {
		return nil, err
	}
	events, err := NewAnalyticsEventRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{{
		Name:    "firestore",
		Timeout: 3 * time.Second,
		Check: func(ctx context.Context) error {
			return provider.Ping(ctx, requestCollection)
		},
	}}, repositories.WithDependencyClock(clock))
	if err != nil {
		return nil, err
	}
	return &Registry{
		provider:  provider,
		overrides: overrides,
		rules:     rules,
		requests:  requests,
		events:    events,
		health:    health,
	}, nil
}

func (r *Registry) Close(ctx context.Context) error { return r.provider.Close(ctx) }

func (r *Registry) CatalogOverrides() repositories.CatalogOverrideRepository { return r.overrides }
func (r *Registry) PricingRules() repositories.PricingRuleRepository         { return r.rules }
func (r *Registry) Requests() repositories.RequestRepository                 { return r.requests }
func (r *Registry) AnalyticsEvents() repositories.AnalyticsEventRepository   { return r.events }
func (r *Registry) Health() repositories.HealthRepository                    { return r.health }
