package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/august-web/dev-quoteX/internal/platform/textutil"
)

const maxPageCount = 500

// QuoteServiceDeps bundles the collaborators used to price quotes.
type QuoteServiceDeps struct {
	Catalog    CatalogService
	Rules      PricingRuleService
	Guardrails []Guardrail
	Metrics    QuoteMetrics
	Logger     func(context.Context, string, map[string]any)
}

type quoteService struct {
	catalog    CatalogService
	rules      PricingRuleService
	guardrails []Guardrail
	metrics    QuoteMetrics
	logger     func(context.Context, string, map[string]any)
}

var _ QuoteService = (*quoteService)(nil)

// NewQuoteService constructs the quote service. Guardrails default to the built-in set.
func NewQuoteService(deps QuoteServiceDeps) (QuoteService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("quote service: catalog service is required")
	}
	if deps.Rules == nil {
		return nil, errors.New("quote service: pricing rule service is required")
	}
	guardrails := deps.Guardrails
	if len(guardrails) == 0 {
		guardrails = DefaultGuardrails()
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &quoteService{
		catalog:    deps.Catalog,
		rules:      deps.Rules,
		guardrails: guardrails,
		metrics:    deps.Metrics,
		logger:     logger,
	}, nil
}

// PriceQuote snapshots the catalog and rules once, then prices and evaluates cfg against that snapshot.
func (s *quoteService) PriceQuote(ctx context.Context, cfg QuoteConfig) (QuoteEvaluation, error) {
	normalized, err := NormalizeQuoteConfig(cfg)
	if err != nil {
		return QuoteEvaluation{}, err
	}
	catalog, err := s.catalog.Effective(ctx)
	if err != nil {
		return QuoteEvaluation{}, err
	}
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return QuoteEvaluation{}, err
	}

	price := CalculatePrice(normalized, catalog, rules)
	guard := EvaluateGuardrails(normalized, s.guardrails)
	if s.metrics != nil {
		s.metrics.QuotePriced(ctx, price.Total, guard.Blocking())
	}
	s.logger(ctx, "quote.priced", map[string]any{
		"websiteType": normalized.WebsiteType,
		"pageCount":   normalized.PageCount,
		"rules":       len(rules),
		"total":       price.Total,
		"blocked":     guard.Blocking(),
	})
	return QuoteEvaluation{Config: normalized, Price: price, Guard: guard}, nil
}

func (s *quoteService) EvaluateQuote(_ context.Context, cfg QuoteConfig) GuardResult {
	normalized, err := NormalizeQuoteConfig(cfg)
	if err != nil {
		normalized = cfg
	}
	return EvaluateGuardrails(normalized, s.guardrails)
}

func (s *quoteService) AnalyzeSRS(ctx context.Context, cmd AnalyzeSRSCommand) (SRSAnalysis, error) {
	text, err := s.resolveSRSText(ctx, cmd.Text, cmd.Document)
	if err != nil {
		return SRSAnalysis{}, err
	}
	analysis := AnalyzeSRS(text)
	if s.metrics != nil {
		s.metrics.SRSAnalyzed(ctx, analysis.TotalPoints)
	}
	s.logger(ctx, "srs.analyzed", map[string]any{"drivers": len(analysis.Drivers), "points": analysis.TotalPoints})
	return analysis, nil
}

func (s *quoteService) PriceSRS(ctx context.Context, cmd PriceSRSCommand) (SRSQuote, error) {
	var analysis SRSAnalysis
	switch {
	case cmd.Analysis != nil:
		analysis = *cmd.Analysis
	case strings.TrimSpace(cmd.Text) != "":
		var err error
		analysis, err = s.AnalyzeSRS(ctx, AnalyzeSRSCommand{Text: cmd.Text})
		if err != nil {
			return SRSQuote{}, err
		}
	default:
		return SRSQuote{}, ErrSRSEmptyInput
	}

	price, err := PriceFromAnalysis(analysis, cmd.Level)
	if err != nil {
		return SRSQuote{}, err
	}
	total, breakdown := ApplySRSAddons(price, cmd.Addons)
	return SRSQuote{Analysis: analysis, Price: price, Total: total, Breakdown: breakdown}, nil
}

func (s *quoteService) resolveSRSText(ctx context.Context, text string, doc *SRSDocument) (string, error) {
	if doc != nil && len(doc.Data) > 0 {
		extracted, err := ExtractSRSText(ctx, *doc)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != "" {
			extracted = text + "\n\n" + extracted
		}
		return extracted, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrSRSEmptyInput
	}
	return textutil.StripMarkup(text), nil
}

// NormalizeQuoteConfig trims ids, drops empty or duplicate selections, and defaults a zero page count to one.
func NormalizeQuoteConfig(cfg QuoteConfig) (QuoteConfig, error) {
	if cfg.PageCount < 0 || cfg.PageCount > maxPageCount {
		return QuoteConfig{}, fmt.Errorf("%w: pageCount must be between 0 and %d; 0 means 1", ErrQuoteInvalidConfig, maxPageCount)
	}
	out := QuoteConfig{
		WebsiteType:      strings.TrimSpace(cfg.WebsiteType),
		PageCount:        cfg.PageCount,
		SelectedFeatures: normalizeIDList(cfg.SelectedFeatures),
		DeliveryOption:   strings.TrimSpace(cfg.DeliveryOption),
		SelectedExtras:   normalizeIDList(cfg.SelectedExtras),
		Region:           strings.TrimSpace(cfg.Region),
		Currency:         strings.ToUpper(strings.TrimSpace(cfg.Currency)),
	}
	if out.PageCount == 0 {
		out.PageCount = 1
	}
	return out, nil
}

func normalizeIDList(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
