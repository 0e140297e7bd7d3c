package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// MockProvider settles every charge without contacting a payment processor.
// Decline, when set, lets tests and demos simulate refusals.
type MockProvider struct {
	Name    string
	Delay   time.Duration
	Decline func(ChargeRequest) bool
	Now     func() time.Time
}

var _ Provider = (*MockProvider)(nil)

// Charge waits for Delay, honouring cancellation, then approves unless Decline says otherwise.
func (p *MockProvider) Charge(ctx context.Context, req ChargeRequest) (PaymentDetails, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return PaymentDetails{}, ctx.Err()
		case <-timer.C:
		}
	}
	if p.Decline != nil && p.Decline(req) {
		return PaymentDetails{}, fmt.Errorf("%w: %s", ErrDeclined, req.Reference)
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	name := p.Name
	if name == "" {
		name = "mock"
	}
	return PaymentDetails{
		Provider:  name,
		PaymentID: "pay_" + ulid.Make().String(),
		Status:    StatusSucceeded,
		Amount:    req.Amount,
		Currency:  req.Currency,
		SettledAt: now().UTC(),
	}, nil
}
