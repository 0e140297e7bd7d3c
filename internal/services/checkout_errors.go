package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
	// ErrCheckoutInvalidCoupon indicates the coupon code is not recognised.
	ErrCheckoutInvalidCoupon = errors.New("checkout: invalid coupon")
	// ErrCheckoutAlreadyPaid indicates the selected amount has already been settled.
	ErrCheckoutAlreadyPaid = errors.New("checkout: already paid")
	// ErrCheckoutPaymentFailed indicates the payment provider refused or failed the charge.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment failed")
)

// CheckoutValidationError reports every billing, card, and terms problem found in a pay command.
type CheckoutValidationError struct {
	Fields map[string]string
}

func (e *CheckoutValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrCheckoutInvalidInput.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return ErrCheckoutInvalidInput.Error() + ": " + strings.Join(keys, ", ")
}

func (e *CheckoutValidationError) Unwrap() error {
	return ErrCheckoutInvalidInput
}
