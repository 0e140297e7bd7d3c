package services

import "errors"

var (
	// ErrAnalyticsRepositoryMissing indicates the analytics event repository dependency is absent.
	ErrAnalyticsRepositoryMissing = errors.New("analytics service: repository is not configured")
	// ErrAnalyticsInvalidEvent signals an unknown event type or a missing step/item reference.
	ErrAnalyticsInvalidEvent = errors.New("analytics service: invalid event")
)
