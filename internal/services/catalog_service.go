package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/repositories"
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Overrides repositories.CatalogOverrideRepository
	// Defaults replaces the compiled-in catalog when set.
	Defaults *Catalog
	Logger   func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo     repositories.CatalogOverrideRepository
	defaults Catalog
	logger   func(context.Context, string, map[string]any)
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Overrides == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	defaults := DefaultCatalog()
	if deps.Defaults != nil {
		defaults = *deps.Defaults
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		repo:     deps.Overrides,
		defaults: defaults,
		logger:   logger,
	}, nil
}

func (s *catalogService) Defaults() Catalog {
	return cloneCatalog(s.defaults)
}

func (s *catalogService) Overrides(ctx context.Context) (CatalogOverrides, error) {
	overrides, err := s.repo.Get(ctx)
	if err != nil {
		return CatalogOverrides{}, fmt.Errorf("catalog service: load overrides: %w", err)
	}
	return overrides, nil
}

func (s *catalogService) Effective(ctx context.Context) (Catalog, error) {
	overrides, err := s.Overrides(ctx)
	if err != nil {
		return Catalog{}, err
	}
	return ApplyCatalogOverrides(s.defaults, overrides), nil
}

func (s *catalogService) ReplaceOverrides(ctx context.Context, overrides CatalogOverrides) (Catalog, error) {
	normalized, err := s.validateOverrides(overrides)
	if err != nil {
		return Catalog{}, err
	}
	if err := s.repo.Replace(ctx, normalized); err != nil {
		return Catalog{}, fmt.Errorf("catalog service: store overrides: %w", err)
	}
	s.logger(ctx, "catalog.overrides.replaced", map[string]any{
		"websiteTypes": len(normalized.WebsiteTypes),
		"features":     len(normalized.Features),
		"extras":       len(normalized.Extras),
		"pricePerPage": normalized.PricePerPage != nil,
	})
	return ApplyCatalogOverrides(s.defaults, normalized), nil
}

func (s *catalogService) ResetOverride(ctx context.Context, namespace CatalogNamespace, id string) (Catalog, error) {
	current, err := s.Overrides(ctx)
	if err != nil {
		return Catalog{}, err
	}
	next := current.Clone()
	id = strings.TrimSpace(id)
	switch namespace {
	case domain.NamespaceWebsiteTypes:
		delete(next.WebsiteTypes, id)
	case domain.NamespaceFeatures:
		delete(next.Features, id)
	case domain.NamespaceExtras:
		delete(next.Extras, id)
	case domain.NamespacePricePerPage:
		next.PricePerPage = nil
	default:
		return Catalog{}, fmt.Errorf("%w: %q", ErrCatalogUnknownNamespace, namespace)
	}
	if err := s.repo.Replace(ctx, next); err != nil {
		return Catalog{}, fmt.Errorf("catalog service: store overrides: %w", err)
	}
	s.logger(ctx, "catalog.override.reset", map[string]any{"namespace": string(namespace), "id": id})
	return ApplyCatalogOverrides(s.defaults, next), nil
}

func (s *catalogService) validateOverrides(in CatalogOverrides) (CatalogOverrides, error) {
	var errs []error
	check := func(namespace CatalogNamespace, values map[string]int64, lookup func(string) (CatalogItem, bool)) map[string]int64 {
		if len(values) == 0 {
			return nil
		}
		out := make(map[string]int64, len(values))
		for rawID, price := range values {
			id := strings.TrimSpace(rawID)
			if _, ok := lookup(id); !ok {
				errs = append(errs, fmt.Errorf("%s: unknown id %q", namespace, rawID))
				continue
			}
			if price < 0 || price > domain.MaxAmount {
				errs = append(errs, fmt.Errorf("%s.%s: price must be between 0 and %d", namespace, id, domain.MaxAmount))
				continue
			}
			out[id] = price
		}
		return out
	}

	out := CatalogOverrides{
		WebsiteTypes: check(domain.NamespaceWebsiteTypes, in.WebsiteTypes, s.defaults.WebsiteType),
		Features:     check(domain.NamespaceFeatures, in.Features, s.defaults.Feature),
		Extras:       check(domain.NamespaceExtras, in.Extras, s.defaults.Extra),
	}
	if in.PricePerPage != nil {
		if *in.PricePerPage < 0 || *in.PricePerPage > domain.MaxAmount {
			errs = append(errs, fmt.Errorf("pricePerPage: price must be between 0 and %d", domain.MaxAmount))
		} else {
			v := *in.PricePerPage
			out.PricePerPage = &v
		}
	}
	if len(errs) > 0 {
		return CatalogOverrides{}, fmt.Errorf("%w: %w", ErrCatalogInvalidOverride, errors.Join(errs...))
	}
	return out, nil
}

// ApplyCatalogOverrides layers overrides on top of defaults. Entries without an override keep their default price.
func ApplyCatalogOverrides(defaults Catalog, overrides CatalogOverrides) Catalog {
	out := cloneCatalog(defaults)
	applyItemOverrides(out.WebsiteTypes, overrides.WebsiteTypes)
	applyItemOverrides(out.Features, overrides.Features)
	applyItemOverrides(out.Extras, overrides.Extras)
	if overrides.PricePerPage != nil {
		out.PricePerPage = *overrides.PricePerPage
	}
	return out
}

func applyItemOverrides(items []CatalogItem, overrides map[string]int64) {
	if len(overrides) == 0 {
		return
	}
	for i := range items {
		if price, ok := overrides[items[i].ID]; ok {
			items[i].BasePrice = price
		}
	}
}

func cloneCatalog(c Catalog) Catalog {
	return Catalog{
		WebsiteTypes: append([]CatalogItem(nil), c.WebsiteTypes...),
		Features:     append([]CatalogItem(nil), c.Features...),
		Extras:       append([]CatalogItem(nil), c.Extras...),
		Delivery:     append([]DeliveryOption(nil), c.Delivery...),
		PricePerPage: c.PricePerPage,
	}
}
