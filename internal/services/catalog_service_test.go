package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

func TestNewCatalogServiceRequiresRepository(t *testing.T) {
	if _, err := NewCatalogService(CatalogServiceDeps{}); !errors.Is(err, ErrCatalogRepositoryMissing) {
		t.Fatalf("expected ErrCatalogRepositoryMissing, got %v", err)
	}
}

func TestCatalogServiceReplaceAndResetOverrides(t *testing.T) {
	ctx := context.Background()
	repo := &fakeOverrideRepo{}
	svc, err := NewCatalogService(CatalogServiceDeps{Overrides: repo})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	perPage := int64(75)
	effective, err := svc.ReplaceOverrides(ctx, CatalogOverrides{
		WebsiteTypes: map[string]int64{" blog ": 450},
		Extras:       map[string]int64{"hosting": 0},
		PricePerPage: &perPage,
	})
	if err != nil {
		t.Fatalf("ReplaceOverrides: %v", err)
	}
	blog, _ := effective.WebsiteType("blog")
	hosting, _ := effective.Extra("hosting")
	if blog.BasePrice != 450 || hosting.BasePrice != 0 || effective.PricePerPage != 75 {
		t.Fatalf("overrides not applied: blog=%d hosting=%d perPage=%d", blog.BasePrice, hosting.BasePrice, effective.PricePerPage)
	}
	if _, ok := repo.overrides.WebsiteTypes["blog"]; !ok {
		t.Fatalf("expected trimmed id to be stored, got %+v", repo.overrides.WebsiteTypes)
	}

	reset, err := svc.ResetOverride(ctx, domain.NamespaceWebsiteTypes, "blog")
	if err != nil {
		t.Fatalf("ResetOverride: %v", err)
	}
	blog, _ = reset.WebsiteType("blog")
	defaultBlog, _ := svc.Defaults().WebsiteType("blog")
	if blog.BasePrice != defaultBlog.BasePrice {
		t.Fatalf("reset should restore default %d, got %d", defaultBlog.BasePrice, blog.BasePrice)
	}

	reset, err = svc.ResetOverride(ctx, domain.NamespacePricePerPage, "")
	if err != nil {
		t.Fatalf("ResetOverride pricePerPage: %v", err)
	}
	if reset.PricePerPage != svc.Defaults().PricePerPage {
		t.Fatalf("expected default price per page, got %d", reset.PricePerPage)
	}

	if _, err := svc.ResetOverride(ctx, "colors", "red"); !errors.Is(err, ErrCatalogUnknownNamespace) {
		t.Fatalf("expected ErrCatalogUnknownNamespace, got %v", err)
	}
}

func TestCatalogServiceRejectsInvalidOverridesAtomically(t *testing.T) {
	ctx := context.Background()
	repo := &fakeOverrideRepo{overrides: CatalogOverrides{Features: map[string]int64{"seo": 300}}}
	svc, err := NewCatalogService(CatalogServiceDeps{Overrides: repo})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	negative := int64(-5)
	_, err = svc.ReplaceOverrides(ctx, CatalogOverrides{
		WebsiteTypes: map[string]int64{"spaceship": 10},
		Features:     map[string]int64{"seo": -1},
		PricePerPage: &negative,
	})
	if !errors.Is(err, ErrCatalogInvalidOverride) {
		t.Fatalf("expected ErrCatalogInvalidOverride, got %v", err)
	}
	for _, fragment := range []string{"spaceship", "seo", "pricePerPage"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error %q", fragment, err)
		}
	}
	if repo.replaces != 0 || repo.overrides.Features["seo"] != 300 {
		t.Fatalf("store must keep its previous value, got %+v", repo.overrides)
	}
}

func TestCatalogServiceRejectsOverridesAboveCap(t *testing.T) {
	ctx := context.Background()
	repo := &fakeOverrideRepo{overrides: CatalogOverrides{Features: map[string]int64{"seo": 300}}}
	svc, err := NewCatalogService(CatalogServiceDeps{Overrides: repo})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	huge := domain.MaxAmount + 1
	for _, overrides := range []CatalogOverrides{
		{Features: map[string]int64{"seo": huge}},
		{PricePerPage: &huge},
	} {
		if _, err := svc.ReplaceOverrides(ctx, overrides); !errors.Is(err, ErrCatalogInvalidOverride) {
			t.Fatalf("expected ErrCatalogInvalidOverride, got %v", err)
		}
	}
	if repo.replaces != 0 || repo.overrides.Features["seo"] != 300 {
		t.Fatalf("store must keep its previous value, got %+v", repo.overrides)
	}

	limit := domain.MaxAmount
	if _, err := svc.ReplaceOverrides(ctx, CatalogOverrides{PricePerPage: &limit}); err != nil {
		t.Fatalf("price at the cap must be accepted: %v", err)
	}
}

func TestCatalogServiceDefaultsAreIsolated(t *testing.T) {
	svc, err := NewCatalogService(CatalogServiceDeps{Overrides: &fakeOverrideRepo{}})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	defaults := svc.Defaults()
	defaults.WebsiteTypes[0].BasePrice = 1
	if svc.Defaults().WebsiteTypes[0].BasePrice == 1 {
		t.Fatalf("Defaults must return a copy")
	}
}

func TestCatalogServiceEffectivePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("store down")
	svc, err := NewCatalogService(CatalogServiceDeps{Overrides: &fakeOverrideRepo{getErr: boom}})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	if _, err := svc.Effective(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestParseCatalogYAML(t *testing.T) {
	catalog, err := ParseCatalogYAML([]byte(`
pricePerPage: 40
websiteTypes:
  - id: wiki
    name: Wiki
    price: 900
delivery:
  - id: normal
    name: Standard
    multiplier: 1
    duration: 4-6 weeks
`))
	if err != nil {
		t.Fatalf("ParseCatalogYAML: %v", err)
	}
	wiki, ok := catalog.WebsiteType("wiki")
	if !ok || wiki.BasePrice != 900 || catalog.PricePerPage != 40 {
		t.Fatalf("unexpected catalog %+v", catalog)
	}

	if _, err := ParseCatalogYAML([]byte("delivery:\n  - id: slow\n    name: Slow\n    multiplier: 0.5\n")); err == nil {
		t.Fatalf("expected error for multiplier below one")
	}
	if _, err := ParseCatalogYAML([]byte("websiteTypes:\n  - id: a\n    name: A\n    price: -1\n")); err == nil {
		t.Fatalf("expected error for negative price")
	}
	if _, err := ParseCatalogYAML([]byte("websiteTypes:\n  - id: a\n    name: A\n    price: 1000000001\n")); err == nil {
		t.Fatalf("expected error for price above the cap")
	}
	if _, err := ParseCatalogYAML([]byte("delivery:\n  - id: warp\n    name: Warp\n    multiplier: .nan\n")); err == nil {
		t.Fatalf("expected error for NaN multiplier")
	}
}

func TestDefaultCatalogMatchesPublishedPrices(t *testing.T) {
	catalog := DefaultCatalog()
	if len(catalog.WebsiteTypes) != 8 || len(catalog.Features) != 10 || len(catalog.Extras) != 5 || len(catalog.Delivery) != 3 {
		t.Fatalf("unexpected catalog sizes: %d/%d/%d/%d", len(catalog.WebsiteTypes), len(catalog.Features), len(catalog.Extras), len(catalog.Delivery))
	}
	if catalog.PricePerPage != 50 {
		t.Fatalf("expected 50 per page, got %d", catalog.PricePerPage)
	}
	express, ok := catalog.DeliveryOption("express")
	if !ok || express.Multiplier != 1.25 || express.Duration != "1-2 weeks" {
		t.Fatalf("unexpected express option %+v", express)
	}
}
