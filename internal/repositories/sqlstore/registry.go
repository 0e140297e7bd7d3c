package sqlstore

import (
	"context"
	"time"

	"github.com/august-web/dev-quoteX/internal/repositories"
)

// Registry implements repositories.Registry on one *DB.
type Registry struct {
	db        *DB
	overrides *CatalogOverrideRepository
	rules     *PricingRuleRepository
	requests  *RequestRepository
	events    *AnalyticsEventRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry wires the repositories. The registry owns db and closes it on Close.
func NewRegistry(db *DB, clock func() time.Time) (*Registry, error) {
	if clock == nil {
		clock = time.Now
	}
	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{{
		Name:    string(db.Dialect()),
		Timeout: 2 * time.Second,
		Check:   db.Ping,
	}}, repositories.WithDependencyClock(clock))
	if err != nil {
		return nil, err
	}
	return &Registry{
		db:        db,
		overrides: NewCatalogOverrideRepository(db, clock),
		rules:     NewPricingRuleRepository(db, clock),
		requests:  NewRequestRepository(db),
		events:    NewAnalyticsEventRepository(db),
		health:    health,
	}, nil
}

func (r *Registry) Close(context.Context) error { return r.db.Close() }

func (r *Registry) CatalogOverrides() repositories.CatalogOverrideRepository { return r.overrides }
func (r *Registry) PricingRules() repositories.PricingRuleRepository         { return r.rules }
func (r *Registry) Requests() repositories.RequestRepository                 { return r.requests }
func (r *Registry) AnalyticsEvents() repositories.AnalyticsEventRepository   { return r.events }
func (r *Registry) Health() repositories.HealthRepository                    { return r.health }
