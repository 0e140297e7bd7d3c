package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BaseCurrency is the unit every catalog price and total is expressed in.
const BaseCurrency = "USD"

// ErrCurrencyUnsupported indicates a display currency without a configured rate.
var ErrCurrencyUnsupported = errors.New("currency: unsupported display currency")

// DefaultCurrencyRates holds the static display multipliers relative to BaseCurrency.
func DefaultCurrencyRates() map[string]float64 {
	return map[string]float64{
		"USD": 1,
		"EUR": 0.92,
		"GBP": 0.79,
	}
}

// DisplayAmount is a converted, formatted amount for presentation. It never feeds back into pricing.
type DisplayAmount struct {
	Currency  string
	Rate      float64
	Amount    float64
	Formatted string
}

// CurrencyDisplay converts base totals into display currencies using a static rate table.
type CurrencyDisplay struct {
	rates   map[string]float64
	units   map[string]currency.Unit
	printer *message.Printer
}

// NewCurrencyDisplay validates the rate table. A nil or empty table falls back to DefaultCurrencyRates.
func NewCurrencyDisplay(rates map[string]float64) (*CurrencyDisplay, error) {
	if len(rates) == 0 {
		rates = DefaultCurrencyRates()
	}
	display := &CurrencyDisplay{
		rates:   make(map[string]float64, len(rates)+1),
		units:   make(map[string]currency.Unit, len(rates)+1),
		printer: message.NewPrinter(language.English),
	}
	var errs []error
	for code, rate := range rates {
		normalized := strings.ToUpper(strings.TrimSpace(code))
		unit, err := currency.ParseISO(normalized)
		if err != nil {
			errs = append(errs, fmt.Errorf("currency %q: %w", code, err))
			continue
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			errs = append(errs, fmt.Errorf("currency %q: rate must be positive", code))
			continue
		}
		display.rates[normalized] = rate
		display.units[normalized] = unit
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if _, ok := display.rates[BaseCurrency]; !ok {
		display.rates[BaseCurrency] = 1
		display.units[BaseCurrency] = currency.USD
	}
	return display, nil
}

// Supported lists the configured currency codes in alphabetical order.
func (d *CurrencyDisplay) Supported() []string {
	if d == nil {
		return []string{BaseCurrency}
	}
	codes := make([]string, 0, len(d.rates))
	for code := range d.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Convert expresses amount (in BaseCurrency) in code, rounded to cents.
func (d *CurrencyDisplay) Convert(amount int64, code string) (DisplayAmount, error) {
	if d == nil {
		return DisplayAmount{}, ErrCurrencyUnsupported
	}
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		normalized = BaseCurrency
	}
	rate, ok := d.rates[normalized]
	if !ok {
		return DisplayAmount{}, fmt.Errorf("%w: %s", ErrCurrencyUnsupported, normalized)
	}
	converted := math.Round(float64(amount)*rate*100) / 100
	unit := d.units[normalized]
	return DisplayAmount{
		Currency:  normalized,
		Rate:      rate,
		Amount:    converted,
		Formatted: d.printer.Sprint(currency.Symbol(unit.Amount(converted))),
	}, nil
}
