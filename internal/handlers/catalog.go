package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/httpx"
	"github.com/august-web/dev-quoteX/internal/services"
)

const (
	maxPricingRequestBody = 64 * 1024
	maxRulesRequestBody   = 256 * 1024
)

// CatalogHandlers serves the wizard catalog and the operator pricing and rule editors.
type CatalogHandlers struct {
	catalog  services.CatalogService
	rules    services.PricingRuleService
	currency *services.CurrencyDisplay
}

// NewCatalogHandlers constructs catalog handlers. currency may be nil, in which case only USD is offered.
func NewCatalogHandlers(catalog services.CatalogService, rules services.PricingRuleService, currency *services.CurrencyDisplay) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog, rules: rules, currency: currency}
}

// Routes registers the public catalog endpoint.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/catalog", h.getCatalog)
}

// AdminRoutes registers pricing override and rule endpoints under the admin group.
func (h *CatalogHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/pricing", h.getPricing)
	r.Put("/pricing", h.replacePricing)
	r.Delete("/pricing/{namespace}/{itemID}", h.resetPricing)
	r.Get("/rules", h.getRules)
	r.Put("/rules", h.replaceRules)
}

func (h *CatalogHandlers) getCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	catalog, err := h.catalog.Effective(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := newCatalogResponse(catalog)
	if code := strings.TrimSpace(r.URL.Query().Get("currency")); code != "" {
		display, err := h.currency.Convert(1, code)
		if err != nil {
			writeServiceError(ctx, w, err)
			return
		}
		resp.Currency = &currencyPayload{Code: display.Currency, Rate: display.Rate, Supported: h.currency.Supported()}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type pricingResponse struct {
	Catalog   catalogResponse  `json:"catalog"`
	Overrides overridesPayload `json:"overrides"`
}

func (h *CatalogHandlers) getPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	h.writePricing(w, r, nil)
}

func (h *CatalogHandlers) replacePricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload overridesPayload
	if err := httpx.DecodeJSON(r, maxPricingRequestBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	catalog, err := h.catalog.ReplaceOverrides(ctx, payload.toDomain())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.writePricing(w, r, &catalog)
}

func (h *CatalogHandlers) resetPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	namespace := services.CatalogNamespace(strings.TrimSpace(chi.URLParam(r, "namespace")))
	catalog, err := h.catalog.ResetOverride(ctx, namespace, strings.TrimSpace(chi.URLParam(r, "itemID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.writePricing(w, r, &catalog)
}

// writePricing answers with the effective catalog and the stored overrides. A nil catalog is re-read.
func (h *CatalogHandlers) writePricing(w http.ResponseWriter, r *http.Request, catalog *services.Catalog) {
	ctx := r.Context()
	if catalog == nil {
		effective, err := h.catalog.Effective(ctx)
		if err != nil {
			writeServiceError(ctx, w, err)
			return
		}
		catalog = &effective
	}
	overrides, err := h.catalog.Overrides(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pricingResponse{
		Catalog:   newCatalogResponse(*catalog),
		Overrides: newOverridesPayload(overrides),
	})
}

func (h *CatalogHandlers) getRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rules == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "pricing rule service unavailable", http.StatusServiceUnavailable))
		return
	}
	rules, err := h.rules.ListRules(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.writeRules(w, r, rules)
}

func (h *CatalogHandlers) replaceRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rules == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "pricing rule service unavailable", http.StatusServiceUnavailable))
		return
	}
	raw, err := httpx.ReadBody(r, maxRulesRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	rules, err := h.rules.ReplaceRulesJSON(ctx, raw)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.writeRules(w, r, rules)
}

func (h *CatalogHandlers) writeRules(w http.ResponseWriter, r *http.Request, rules []services.PricingRule) {
	encoded, err := domain.EncodePricingRules(rules)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}
