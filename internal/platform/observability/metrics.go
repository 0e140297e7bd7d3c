package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QuoteMetrics records pricing activity as otel instruments. It satisfies services.QuoteMetrics.
type QuoteMetrics struct {
	priced  metric.Int64Counter
	blocked metric.Int64Counter
	srs     metric.Int64Counter
	points  metric.Int64Histogram
	totals  metric.Int64Histogram
}

// NewQuoteMetrics registers the quote instruments on meter, or on the global provider when meter is nil.
func NewQuoteMetrics(meter metric.Meter) (*QuoteMetrics, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentation)
	}
	priced, errPriced := meter.Int64Counter("quotes.priced",
		metric.WithDescription("Wizard configurations priced"))
	blocked, errBlocked := meter.Int64Counter("quotes.blocked",
		metric.WithDescription("Priced configurations that carried blocking guardrail errors"))
	srs, errSRS := meter.Int64Counter("srs.analyzed",
		metric.WithDescription("SRS documents analyzed"))
	points, errPoints := meter.Int64Histogram("srs.points",
		metric.WithDescription("Effort points detected per SRS analysis"))
	totals, errTotals := meter.Int64Histogram("quotes.total",
		metric.WithUnit("{USD}"),
		metric.WithDescription("Final quote totals in whole dollars"))
	if err := errors.Join(errPriced, errBlocked, errSRS, errPoints, errTotals); err != nil {
		return nil, err
	}
	return &QuoteMetrics{priced: priced, blocked: blocked, srs: srs, points: points, totals: totals}, nil
}

// QuotePriced counts one priced configuration.
func (m *QuoteMetrics) QuotePriced(ctx context.Context, total int64, blocked bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("blocked", blocked))
	m.priced.Add(ctx, 1, attrs)
	m.totals.Record(ctx, total, attrs)
	if blocked {
		m.blocked.Add(ctx, 1)
	}
}

// SRSAnalyzed counts one analysis and records its point total.
func (m *QuoteMetrics) SRSAnalyzed(ctx context.Context, points int) {
	if m == nil {
		return
	}
	m.srs.Add(ctx, 1)
	m.points.Record(ctx, int64(points))
}
