package services

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

//go:embed catalog_defaults.yaml
var embeddedCatalog []byte

type catalogItemYAML struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       int64  `yaml:"price"`
	Description string `yaml:"description"`
}

type deliveryOptionYAML struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Multiplier  float64 `yaml:"multiplier"`
	Duration    string  `yaml:"duration"`
	Description string  `yaml:"description"`
}

type catalogYAML struct {
	PricePerPage int64                `yaml:"pricePerPage"`
	WebsiteTypes []catalogItemYAML    `yaml:"websiteTypes"`
	Features     []catalogItemYAML    `yaml:"features"`
	Extras       []catalogItemYAML    `yaml:"extras"`
	Delivery     []deliveryOptionYAML `yaml:"delivery"`
}

// DefaultCatalog returns the compiled-in catalog.
func DefaultCatalog() Catalog {
	catalog, err := ParseCatalogYAML(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog defaults: %v", err))
	}
	return catalog
}

// LoadCatalogFile reads a catalog definition from disk, replacing the compiled-in defaults.
func LoadCatalogFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog defaults: read %s: %w", path, err)
	}
	catalog, err := ParseCatalogYAML(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog defaults: parse %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalogYAML decodes and validates a catalog document.
func ParseCatalogYAML(data []byte) (Catalog, error) {
	var doc catalogYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Catalog{}, err
	}
	if doc.PricePerPage < 0 || doc.PricePerPage > domain.MaxAmount {
		return Catalog{}, fmt.Errorf("pricePerPage must be between 0 and %d", domain.MaxAmount)
	}

	catalog := Catalog{PricePerPage: doc.PricePerPage}
	var err error
	if catalog.WebsiteTypes, err = convertCatalogItems("websiteTypes", doc.WebsiteTypes); err != nil {
		return Catalog{}, err
	}
	if catalog.Features, err = convertCatalogItems("features", doc.Features); err != nil {
		return Catalog{}, err
	}
	if catalog.Extras, err = convertCatalogItems("extras", doc.Extras); err != nil {
		return Catalog{}, err
	}

	seen := make(map[string]struct{}, len(doc.Delivery))
	for _, option := range doc.Delivery {
		id := strings.TrimSpace(option.ID)
		if id == "" {
			return Catalog{}, errors.New("delivery: id is required")
		}
		if _, dup := seen[id]; dup {
			return Catalog{}, fmt.Errorf("delivery: duplicate id %q", id)
		}
		seen[id] = struct{}{}
		if !(option.Multiplier >= 1 && option.Multiplier <= domain.MaxRuleMultiplier) {
			return Catalog{}, fmt.Errorf("delivery %s: multiplier must be between 1 and %g", id, domain.MaxRuleMultiplier)
		}
		catalog.Delivery = append(catalog.Delivery, DeliveryOption{
			ID:          id,
			Name:        strings.TrimSpace(option.Name),
			Multiplier:  option.Multiplier,
			Duration:    strings.TrimSpace(option.Duration),
			Description: strings.TrimSpace(option.Description),
		})
	}
	return catalog, nil
}

func convertCatalogItems(namespace string, items []catalogItemYAML) ([]CatalogItem, error) {
	out := make([]CatalogItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("%s: id is required", namespace)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%s: duplicate id %q", namespace, id)
		}
		seen[id] = struct{}{}
		if item.Price < 0 || item.Price > domain.MaxAmount {
			return nil, fmt.Errorf("%s %s: price must be between 0 and %d", namespace, id, domain.MaxAmount)
		}
		out = append(out, CatalogItem{
			ID:          id,
			Name:        strings.TrimSpace(item.Name),
			BasePrice:   item.Price,
			Description: strings.TrimSpace(item.Description),
		})
	}
	return out, nil
}
