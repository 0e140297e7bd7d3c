package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/august-web/dev-quoteX/internal/payments"
	"github.com/august-web/dev-quoteX/internal/platform/requestctx"
)

const depositRatio = 0.5

type couponKind int

const (
	couponPercent couponKind = iota
	couponAmount
)

type coupon struct {
	kind  couponKind
	value int64
}

var checkoutCoupons = map[string]coupon{
	"SAVE10": {kind: couponPercent, value: 10},
	"NEW20":  {kind: couponPercent, value: 20},
	"FLAT50": {kind: couponAmount, value: 50},
}

var checkoutMethods = map[string]struct{}{
	"card":   {},
	"paypal": {},
	"bank":   {},
}

// checkoutCharger abstracts payments.Manager for easier testing.
type checkoutCharger interface {
	Charge(ctx context.Context, req payments.ChargeRequest) (payments.PaymentDetails, error)
	Supports(method string) bool
}

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Requests RequestService
	Payments checkoutCharger
	Currency *CurrencyDisplay
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	requests RequestService
	payments checkoutCharger
	currency *CurrencyDisplay
	now      func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Requests == nil {
		return nil, errors.New("checkout service: request service is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment manager is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	display := deps.Currency
	if display == nil {
		var err error
		display, err = NewCurrencyDisplay(nil)
		if err != nil {
			return nil, err
		}
	}
	return &checkoutService{
		requests: deps.Requests,
		payments: deps.Payments,
		currency: display,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Quote computes the amount due for the request in the selected mode after any coupon.
func (s *checkoutService) Quote(ctx context.Context, cmd CheckoutQuoteCommand) (CheckoutQuote, error) {
	quote, _, err := s.quote(ctx, cmd)
	return quote, err
}

// Pay validates billing data, charges the mock provider, and flags the request as paid.
func (s *checkoutService) Pay(ctx context.Context, cmd CheckoutPayCommand) (CheckoutReceipt, error) {
	if s == nil || s.payments == nil {
		return CheckoutReceipt{}, ErrCheckoutUnavailable
	}
	quote, request, err := s.quote(ctx, cmd.CheckoutQuoteCommand)
	if err != nil {
		return CheckoutReceipt{}, err
	}

	method := strings.ToLower(strings.TrimSpace(cmd.Method))
	if method == "" {
		method = "card"
	}
	if problems := s.validatePayment(method, cmd); len(problems) > 0 {
		return CheckoutReceipt{}, &CheckoutValidationError{Fields: problems}
	}
	if alreadyPaid(request, quote.Mode) {
		return CheckoutReceipt{}, ErrCheckoutAlreadyPaid
	}

	charge := payments.ChargeRequest{
		Reference: request.ID,
		Method:    method,
		Amount:    quote.ToPay,
		Currency:  BaseCurrency,
		Metadata: map[string]string{
			"mode":   string(quote.Mode),
			"coupon": quote.Coupon,
		},
		IdempotencyKey: checkoutIdempotencyKey(request.ID, quote.Mode),
	}
	if key := requestctx.IdempotencyKey(ctx); key != "" {
		charge.Metadata["clientKey"] = key
	}
	if method == "card" {
		charge.Card = &payments.Card{Number: cmd.Card.Number, Expiry: cmd.Card.Expiry, CVV: cmd.Card.CVV}
	}
	details, err := s.payments.Charge(ctx, charge)
	if err != nil {
		s.logger(ctx, "checkout.payment_failed", map[string]any{
			"requestId": request.ID,
			"method":    method,
			"error":     err.Error(),
		})
		return CheckoutReceipt{}, fmt.Errorf("%w: %v", ErrCheckoutPaymentFailed, err)
	}

	updated, err := s.requests.MarkPaid(ctx, request.ID, quote.Mode)
	if err != nil {
		return CheckoutReceipt{}, err
	}

	paidAt := details.SettledAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	s.logger(ctx, "checkout.paid", map[string]any{
		"requestId": request.ID,
		"mode":      string(quote.Mode),
		"method":    method,
		"amount":    quote.ToPay,
		"paymentId": details.PaymentID,
	})
	return CheckoutReceipt{
		Quote:     quote,
		PaymentID: details.PaymentID,
		Request:   updated,
		PaidAt:    paidAt.UTC(),
	}, nil
}

func (s *checkoutService) quote(ctx context.Context, cmd CheckoutQuoteCommand) (CheckoutQuote, ClientRequest, error) {
	if s == nil || s.requests == nil {
		return CheckoutQuote{}, ClientRequest{}, ErrCheckoutUnavailable
	}
	id := strings.TrimSpace(cmd.RequestID)
	if id == "" {
		return CheckoutQuote{}, ClientRequest{}, ErrCheckoutInvalidInput
	}
	mode := cmd.Mode
	if mode == "" {
		mode = PaymentModeDeposit
	}
	if mode != PaymentModeDeposit && mode != PaymentModeFull {
		return CheckoutQuote{}, ClientRequest{}, ErrCheckoutInvalidInput
	}

	request, err := s.requests.Get(ctx, id)
	if err != nil {
		return CheckoutQuote{}, ClientRequest{}, err
	}

	quote := CheckoutQuote{
		RequestID: request.ID,
		Mode:      mode,
		Subtotal:  request.Total,
		Base:      checkoutBase(request.Total, mode),
		Breakdown: append([]BreakdownLine(nil), request.Breakdown...),
	}

	code := strings.ToUpper(strings.TrimSpace(cmd.CouponCode))
	if code != "" {
		c, ok := checkoutCoupons[code]
		if !ok {
			return CheckoutQuote{}, ClientRequest{}, ErrCheckoutInvalidCoupon
		}
		quote.Coupon = code
		quote.Discount = couponDiscount(c, quote.Base)
	}
	quote.ToPay = max(0, quote.Base-quote.Discount)

	display, err := s.currency.Convert(quote.ToPay, cmd.Currency)
	if err != nil {
		return CheckoutQuote{}, ClientRequest{}, fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err)
	}
	quote.Display = &display
	return quote, request, nil
}

func (s *checkoutService) validatePayment(method string, cmd CheckoutPayCommand) map[string]string {
	problems := make(map[string]string)
	billing := cmd.Billing
	if strings.TrimSpace(billing.Name) == "" {
		problems["name"] = "Name is required"
	}
	if !emailPattern.MatchString(strings.TrimSpace(billing.Email)) {
		problems["email"] = "Valid email required"
	}
	if strings.TrimSpace(billing.Address) == "" {
		problems["address"] = "Address is required"
	}
	if strings.TrimSpace(billing.City) == "" {
		problems["city"] = "City is required"
	}
	if strings.TrimSpace(billing.Country) == "" {
		problems["country"] = "Country is required"
	}
	if strings.TrimSpace(billing.Zip) == "" {
		problems["zip"] = "ZIP/Postal code required"
	}
	if _, ok := checkoutMethods[method]; !ok || !s.payments.Supports(method) {
		problems["method"] = "Unsupported payment method"
	} else if method == "card" {
		card := payments.Card{Number: cmd.Card.Number, Expiry: cmd.Card.Expiry, CVV: cmd.Card.CVV}
		for field, msg := range payments.ValidateCard(card, s.now()) {
			problems[field] = msg
		}
	}
	if !cmd.AcceptedTerms {
		problems["agreed"] = "You must accept the terms"
	}
	return problems
}

func checkoutBase(total int64, mode PaymentMode) int64 {
	if mode == PaymentModeDeposit {
		return roundHalfUp(float64(total) * depositRatio)
	}
	return total
}

func couponDiscount(c coupon, base int64) int64 {
	switch c.kind {
	case couponPercent:
		return roundHalfUp(float64(base) * float64(c.value) / 100)
	default:
		return c.value
	}
}

func alreadyPaid(request ClientRequest, mode PaymentMode) bool {
	if request.FinalPaid {
		return true
	}
	return mode == PaymentModeDeposit && request.DepositPaid
}

func checkoutIdempotencyKey(requestID string, mode PaymentMode) string {
	sum := sha256.Sum256([]byte(requestID + "|" + string(mode)))
	return hex.EncodeToString(sum[:])
}
