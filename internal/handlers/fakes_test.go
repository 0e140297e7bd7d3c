package handlers

import (
	"context"
	"fmt"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/services"
)

type fakeCatalogService struct {
	catalog   services.Catalog
	overrides services.CatalogOverrides
	err       error

	replaced *services.CatalogOverrides
	resetNS  services.CatalogNamespace
	resetID  string
	resetErr error
}

func (f *fakeCatalogService) Effective(context.Context) (services.Catalog, error) {
	return f.catalog, f.err
}

func (f *fakeCatalogService) Defaults() services.Catalog { return f.catalog }

func (f *fakeCatalogService) Overrides(context.Context) (services.CatalogOverrides, error) {
	return f.overrides, f.err
}

func (f *fakeCatalogService) ReplaceOverrides(_ context.Context, o services.CatalogOverrides) (services.Catalog, error) {
	if f.err != nil {
		return services.Catalog{}, f.err
	}
	f.replaced = &o
	f.overrides = o
	return f.catalog, nil
}

func (f *fakeCatalogService) ResetOverride(_ context.Context, ns services.CatalogNamespace, id string) (services.Catalog, error) {
	f.resetNS, f.resetID = ns, id
	return f.catalog, f.resetErr
}

type fakeRuleService struct {
	rules []services.PricingRule
	raw   []byte
	err   error
}

func (f *fakeRuleService) ListRules(context.Context) ([]services.PricingRule, error) {
	return f.rules, f.err
}

func (f *fakeRuleService) ReplaceRules(_ context.Context, rules []services.PricingRule) ([]services.PricingRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rules = rules
	return rules, nil
}

func (f *fakeRuleService) ReplaceRulesJSON(_ context.Context, raw []byte) ([]services.PricingRule, error) {
	f.raw = raw
	if f.err != nil {
		return nil, f.err
	}
	rules, err := domain.DecodePricingRules(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrPricingRuleInvalid, err)
	}
	f.rules = rules
	return rules, nil
}

type fakeQuoteService struct {
	evaluation services.QuoteEvaluation
	guard      services.GuardResult
	analysis   services.SRSAnalysis
	srsQuote   services.SRSQuote
	err        error

	priced    *services.QuoteConfig
	evaluated *services.QuoteConfig
	analyzed  *services.AnalyzeSRSCommand
	srsPriced *services.PriceSRSCommand
}

func (f *fakeQuoteService) PriceQuote(_ context.Context, cfg services.QuoteConfig) (services.QuoteEvaluation, error) {
	f.priced = &cfg
	if f.err != nil {
		return services.QuoteEvaluation{}, f.err
	}
	eval := f.evaluation
	eval.Config = cfg
	return eval, nil
}

func (f *fakeQuoteService) EvaluateQuote(_ context.Context, cfg services.QuoteConfig) services.GuardResult {
	f.evaluated = &cfg
	return f.guard
}

func (f *fakeQuoteService) AnalyzeSRS(_ context.Context, cmd services.AnalyzeSRSCommand) (services.SRSAnalysis, error) {
	f.analyzed = &cmd
	return f.analysis, f.err
}

func (f *fakeQuoteService) PriceSRS(_ context.Context, cmd services.PriceSRSCommand) (services.SRSQuote, error) {
	f.srsPriced = &cmd
	return f.srsQuote, f.err
}

type fakeExportService struct {
	pdf      []byte
	archived *services.ArchivedQuote
	err      error

	rendered *services.QuoteDocument
	exported *services.ExportQuoteCommand
}

func (f *fakeExportService) Render(_ context.Context, doc services.QuoteDocument) ([]byte, error) {
	f.rendered = &doc
	return f.pdf, f.err
}

func (f *fakeExportService) Export(_ context.Context, cmd services.ExportQuoteCommand) (services.QuoteExport, error) {
	f.exported = &cmd
	if f.err != nil {
		return services.QuoteExport{}, f.err
	}
	if cmd.Archive {
		if f.archived == nil {
			return services.QuoteExport{}, services.ErrQuoteExportArchiveUnavailable
		}
		return services.QuoteExport{PDF: f.pdf, Archived: f.archived}, nil
	}
	return services.QuoteExport{PDF: f.pdf}, nil
}

type fakeRequestService struct {
	request services.ClientRequest
	page    domain.CursorPage[services.ClientRequest]
	stats   services.RequestStats
	err     error

	submitted  *services.SubmitRequestCommand
	submits    int
	gotID      string
	listFilter *services.RequestListFilter
	updated    *services.UpdateRequestCommand
	onboarding *services.OnboardingCommand
}

func (f *fakeRequestService) Submit(_ context.Context, cmd services.SubmitRequestCommand) (services.ClientRequest, error) {
	f.submitted = &cmd
	f.submits++
	return f.request, f.err
}

func (f *fakeRequestService) Get(_ context.Context, id string) (services.ClientRequest, error) {
	f.gotID = id
	return f.request, f.err
}

func (f *fakeRequestService) List(_ context.Context, filter services.RequestListFilter) (domain.CursorPage[services.ClientRequest], error) {
	f.listFilter = &filter
	return f.page, f.err
}

func (f *fakeRequestService) Update(_ context.Context, cmd services.UpdateRequestCommand) (services.ClientRequest, error) {
	f.updated = &cmd
	return f.request, f.err
}

func (f *fakeRequestService) RecordOnboarding(_ context.Context, cmd services.OnboardingCommand) (services.ClientRequest, error) {
	f.onboarding = &cmd
	return f.request, f.err
}

func (f *fakeRequestService) MarkPaid(context.Context, string, services.PaymentMode) (services.ClientRequest, error) {
	return f.request, f.err
}

func (f *fakeRequestService) Stats(context.Context) (services.RequestStats, error) {
	return f.stats, f.err
}

type fakeCheckoutService struct {
	quote   services.CheckoutQuote
	receipt services.CheckoutReceipt
	err     error

	quoted *services.CheckoutQuoteCommand
	paid   *services.CheckoutPayCommand
}

func (f *fakeCheckoutService) Quote(_ context.Context, cmd services.CheckoutQuoteCommand) (services.CheckoutQuote, error) {
	f.quoted = &cmd
	return f.quote, f.err
}

func (f *fakeCheckoutService) Pay(_ context.Context, cmd services.CheckoutPayCommand) (services.CheckoutReceipt, error) {
	f.paid = &cmd
	return f.receipt, f.err
}

type fakeAnalyticsService struct {
	event   services.AnalyticsEvent
	summary services.AnalyticsSummary
	err     error

	tracked []services.TrackEventCommand
}

func (f *fakeAnalyticsService) Track(_ context.Context, cmd services.TrackEventCommand) (services.AnalyticsEvent, error) {
	f.tracked = append(f.tracked, cmd)
	return f.event, f.err
}

func (f *fakeAnalyticsService) Summary(context.Context) (services.AnalyticsSummary, error) {
	return f.summary, f.err
}

func testCatalog() services.Catalog {
	return services.Catalog{
		WebsiteTypes: []services.CatalogItem{{ID: "landing", Name: "Landing Page", BasePrice: 500}},
		Features:     []services.CatalogItem{{ID: "seo", Name: "SEO", BasePrice: 150}},
		Extras:       []services.CatalogItem{{ID: "copy", Name: "Copywriting", BasePrice: 300}},
		Delivery:     []services.DeliveryOption{{ID: "standard", Name: "Standard", Multiplier: 1, Duration: "3-4 weeks"}},
		PricePerPage: 50,
	}
}
