package services

import (
	"fmt"
	"math"

	domain "github.com/august-web/dev-quoteX/internal/domain"
)

// CalculatePrice prices a quote configuration against a catalog snapshot and an ordered rule list.
// It performs no I/O and always yields the same result for the same inputs.
func CalculatePrice(cfg QuoteConfig, catalog Catalog, rules []PricingRule) PriceResult {
	websiteType, hasType := catalog.WebsiteType(cfg.WebsiteType)
	basePrice := domain.PriceOf(websiteType, hasType)

	additionalPages := cfg.AdditionalPages()
	pagesPrice := int64(additionalPages) * catalog.PricePerPage

	featureLines := make([]BreakdownLine, 0, len(cfg.SelectedFeatures))
	var featuresPrice int64
	for _, id := range cfg.SelectedFeatures {
		feature, ok := catalog.Feature(id)
		featuresPrice += domain.PriceOf(feature, ok)
		if ok {
			featureLines = append(featureLines, BreakdownLine{Item: feature.Name, Price: feature.BasePrice})
		}
	}

	extraLines := make([]BreakdownLine, 0, len(cfg.SelectedExtras))
	var extrasPrice int64
	for _, id := range cfg.SelectedExtras {
		extra, ok := catalog.Extra(id)
		extrasPrice += domain.PriceOf(extra, ok)
		if ok {
			extraLines = append(extraLines, BreakdownLine{Item: extra.Name, Price: extra.BasePrice})
		}
	}

	subtotal := basePrice + pagesPrice + featuresPrice + extrasPrice
	outcome := ApplyRules(cfg, rules, subtotal)

	multiplier := 1.0
	delivery, hasDelivery := catalog.DeliveryOption(cfg.DeliveryOption)
	if hasDelivery && delivery.Multiplier > 0 {
		multiplier = delivery.Multiplier
	}
	total := roundHalfUp(float64(outcome.AdjustedSubtotal) * multiplier)

	breakdown := make([]BreakdownLine, 0, 3+len(featureLines)+len(extraLines)+len(outcome.Lines))
	if hasType {
		breakdown = append(breakdown, BreakdownLine{Item: websiteType.Name + " Website", Price: basePrice})
	}
	if additionalPages > 0 {
		breakdown = append(breakdown, BreakdownLine{Item: fmt.Sprintf("%d Additional Pages", additionalPages), Price: pagesPrice})
	}
	breakdown = append(breakdown, featureLines...)
	breakdown = append(breakdown, extraLines...)
	breakdown = append(breakdown, outcome.Lines...)
	if multiplier > 1 {
		breakdown = append(breakdown, BreakdownLine{Item: delivery.Name + " Delivery", Price: total - outcome.AdjustedSubtotal})
	}

	return PriceResult{
		BasePrice:            basePrice,
		PagesPrice:           pagesPrice,
		FeaturesPrice:        featuresPrice,
		ExtrasPrice:          extrasPrice,
		DeliveryMultiplier:   multiplier,
		Subtotal:             subtotal,
		RuleAdjustedSubtotal: outcome.AdjustedSubtotal,
		Total:                total,
		Breakdown:            breakdown,
	}
}

// maxQuoteAmount is the largest whole amount a float64 holds exactly. Totals saturate there.
const maxQuoteAmount = 1 << 53

// roundHalfUp rounds to the nearest whole unit with ties going towards positive infinity.
func roundHalfUp(v float64) int64 {
	r := math.Floor(v + 0.5)
	switch {
	case math.IsNaN(r):
		return 0
	case r > maxQuoteAmount:
		return maxQuoteAmount
	case r < -maxQuoteAmount:
		return -maxQuoteAmount
	}
	return int64(r)
}
