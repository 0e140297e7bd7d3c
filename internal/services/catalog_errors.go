package services

import "errors"

var (
	// ErrCatalogRepositoryMissing indicates the override repository dependency is absent.
	ErrCatalogRepositoryMissing = errors.New("catalog service: repository is not configured")
	// ErrCatalogInvalidOverride signals a negative price or an id unknown to the default catalog.
	ErrCatalogInvalidOverride = errors.New("catalog service: invalid override")
	// ErrCatalogUnknownNamespace signals an override namespace other than the four supported ones.
	ErrCatalogUnknownNamespace = errors.New("catalog service: unknown namespace")
)
