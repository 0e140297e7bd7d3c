package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status enumerates the normalised payment states shared across providers.
type Status string

const (
	// StatusSucceeded indicates the charge settled.
	StatusSucceeded Status = "succeeded"
	// StatusFailed indicates the charge was declined and no further action is possible.
	StatusFailed Status = "failed"
)

var (
	// ErrUnsupportedMethod is returned when the manager has no provider for a payment method.
	ErrUnsupportedMethod = errors.New("payments: unsupported payment method")
	// ErrDeclined is returned when a provider refuses a charge.
	ErrDeclined = errors.New("payments: charge declined")
)

// ChargeRequest captures a single settlement attempt.
type ChargeRequest struct {
	Reference      string
	Method         string
	Amount         int64
	Currency       string
	Card           *Card
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentDetails normalises provider specific fields for storage.
type PaymentDetails struct {
	Provider  string
	PaymentID string
	Status    Status
	Amount    int64
	Currency  string
	SettledAt time.Time
}

// Provider settles charges for one or more payment methods.
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (PaymentDetails, error)
}

// Manager routes a charge to the provider registered for its method.
type Manager struct {
	providers     map[string]Provider
	defaultMethod string
}

// ManagerOption configures optional behaviour when building a Manager.
type ManagerOption func(*Manager)

// WithDefaultMethod sets the method used when a request leaves Method empty.
func WithDefaultMethod(method string) ManagerOption {
	return func(m *Manager) {
		m.defaultMethod = normalizeMethod(method)
	}
}

// NewManager constructs a Manager keyed by payment method.
func NewManager(providers map[string]Provider, opts ...ManagerOption) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("payments: at least one provider is required")
	}
	registered := make(map[string]Provider, len(providers))
	for method, provider := range providers {
		key := normalizeMethod(method)
		if key == "" || provider == nil {
			return nil, fmt.Errorf("payments: invalid provider registration for method %q", method)
		}
		registered[key] = provider
	}
	m := &Manager{providers: registered}
	if _, ok := registered["card"]; ok {
		m.defaultMethod = "card"
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Supports reports whether method has a registered provider.
func (m *Manager) Supports(method string) bool {
	if m == nil {
		return false
	}
	_, ok := m.providers[m.resolveMethod(method)]
	return ok
}

// Charge delegates to the provider registered for req.Method.
func (m *Manager) Charge(ctx context.Context, req ChargeRequest) (PaymentDetails, error) {
	if m == nil {
		return PaymentDetails{}, errors.New("payments: manager is nil")
	}
	method := m.resolveMethod(req.Method)
	provider, ok := m.providers[method]
	if !ok {
		return PaymentDetails{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, req.Method)
	}
	if req.Amount < 0 {
		return PaymentDetails{}, errors.New("payments: amount must be non-negative")
	}
	req.Method = method
	details, err := provider.Charge(ctx, req)
	if err != nil {
		return PaymentDetails{}, err
	}
	if details.Provider == "" {
		details.Provider = method
	}
	return details, nil
}

func (m *Manager) resolveMethod(method string) string {
	if key := normalizeMethod(method); key != "" {
		return key
	}
	return m.defaultMethod
}

func normalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}
