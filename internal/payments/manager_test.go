package payments

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	calls   int
	last    ChargeRequest
	details PaymentDetails
	err     error
}

func (f *fakeProvider) Charge(_ context.Context, req ChargeRequest) (PaymentDetails, error) {
	f.calls++
	f.last = req
	return f.details, f.err
}

func TestManagerChargeRoutesByMethod(t *testing.T) {
	card := &fakeProvider{details: PaymentDetails{PaymentID: "card-1"}}
	paypal := &fakeProvider{details: PaymentDetails{PaymentID: "pp-1", Provider: "paypal-sandbox"}}

	mgr, err := NewManager(map[string]Provider{"card": card, " PayPal ": paypal})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	details, err := mgr.Charge(context.Background(), ChargeRequest{Method: "paypal", Amount: 100})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if details.PaymentID != "pp-1" || details.Provider != "paypal-sandbox" {
		t.Fatalf("unexpected details %+v", details)
	}
	if card.calls != 0 || paypal.calls != 1 {
		t.Fatalf("expected only paypal to be called, card=%d paypal=%d", card.calls, paypal.calls)
	}

	details, err = mgr.Charge(context.Background(), ChargeRequest{Amount: 50})
	if err != nil {
		t.Fatalf("Charge default: %v", err)
	}
	if details.Provider != "card" || card.last.Method != "card" {
		t.Fatalf("expected default card routing, got %+v / %+v", details, card.last)
	}
}

func TestManagerChargeUnsupportedMethod(t *testing.T) {
	mgr, err := NewManager(map[string]Provider{"card": &fakeProvider{}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := mgr.Charge(context.Background(), ChargeRequest{Method: "bank"}); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	if mgr.Supports("bank") {
		t.Fatalf("bank should not be supported")
	}
}

func TestNewManagerRejectsInvalidRegistration(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Fatalf("expected error for empty providers")
	}
	if _, err := NewManager(map[string]Provider{"": &fakeProvider{}}); err == nil {
		t.Fatalf("expected error for blank method")
	}
}

func TestMockProviderDeclineAndCancel(t *testing.T) {
	provider := &MockProvider{Decline: func(req ChargeRequest) bool { return req.Amount > 1000 }}
	if _, err := provider.Charge(context.Background(), ChargeRequest{Amount: 2000}); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected decline, got %v", err)
	}
	details, err := provider.Charge(context.Background(), ChargeRequest{Amount: 10, Currency: "USD"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if details.Status != StatusSucceeded || details.Amount != 10 || details.PaymentID == "" {
		t.Fatalf("unexpected details %+v", details)
	}

	slow := &MockProvider{Delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := slow.Charge(ctx, ChargeRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestValidateCard(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	ok := ValidateCard(Card{Number: "4242 4242 4242 4242", Expiry: "12/27", CVV: "123"}, now)
	if len(ok) != 0 {
		t.Fatalf("expected valid card, got %v", ok)
	}
	bad := ValidateCard(Card{Number: "4242 4242 4242 4241", Expiry: "5/27", CVV: "12"}, now)
	for _, field := range []string{"number", "expiry", "cvv"} {
		if _, found := bad[field]; !found {
			t.Fatalf("expected %s problem, got %v", field, bad)
		}
	}
	expired := ValidateCard(Card{Number: "4242424242424242", Expiry: "05/25", CVV: "1234"}, now)
	if expired["expiry"] != "Card has expired" {
		t.Fatalf("expected expiry problem, got %v", expired)
	}
	if ValidateCard(Card{Number: "4242424242424242", Expiry: "06/25", CVV: "123"}, now)["expiry"] != "" {
		t.Fatalf("card expiring this month should still be valid")
	}
}
