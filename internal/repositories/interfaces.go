package repositories

import (
	"context"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	CatalogOverrides() CatalogOverrideRepository
	PricingRules() PricingRuleRepository
	Requests() RequestRepository
	AnalyticsEvents() AnalyticsEventRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogOverrideRepository stores the operator price overrides as a single document.
type CatalogOverrideRepository interface {
	// Get returns the current overrides. A store with no overrides returns an empty value and no error.
	Get(ctx context.Context) (domain.CatalogOverrides, error)
	// Replace swaps the whole overrides document.
	Replace(ctx context.Context, overrides domain.CatalogOverrides) error
}

// PricingRuleRepository stores the ordered rule list. Replace must be all-or-nothing.
type PricingRuleRepository interface {
	List(ctx context.Context) ([]domain.PricingRule, error)
	Replace(ctx context.Context, rules []domain.PricingRule) error
}

// RequestListFilter narrows admin request listings.
type RequestListFilter struct {
	Status     *domain.RequestStatus
	Pagination domain.Pagination
}

// RequestRepository persists client requests. Listings are ordered newest first.
type RequestRepository interface {
	// Insert stores a new request and returns a RepositoryError with IsConflict when the id is taken.
	Insert(ctx context.Context, request domain.ClientRequest) error
	// Update overwrites an existing request and returns IsNotFound when it does not exist.
	Update(ctx context.Context, request domain.ClientRequest) error
	FindByID(ctx context.Context, id string) (domain.ClientRequest, error)
	List(ctx context.Context, filter RequestListFilter) (domain.CursorPage[domain.ClientRequest], error)
}

// AnalyticsEventRepository appends usage events and replays them for tallying.
type AnalyticsEventRepository interface {
	Append(ctx context.Context, event domain.AnalyticsEvent) error
	List(ctx context.Context) ([]domain.AnalyticsEvent, error)
}

// HealthRepository reports dependency status for readiness probes.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
