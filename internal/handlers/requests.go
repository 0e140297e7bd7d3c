package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/httpx"
	"github.com/august-web/dev-quoteX/internal/platform/pagination"
	"github.com/august-web/dev-quoteX/internal/services"
)

const (
	maxRequestBody    = 512 * 1024
	maxCheckoutBody   = 16 * 1024
	maxOnboardingBody = 64 * 1024
)

// RequestHandlers serves client request submission, onboarding, checkout, and the operator request book.
type RequestHandlers struct {
	requests    services.RequestService
	checkout    services.CheckoutService
	exports     services.QuoteExportService
	catalog     services.CatalogService
	idempotency func(http.Handler) http.Handler
}

// RequestHandlersOption customises RequestHandlers.
type RequestHandlersOption func(*RequestHandlers)

// WithRequestCheckout enables the checkout endpoints.
func WithRequestCheckout(checkout services.CheckoutService) RequestHandlersOption {
	return func(h *RequestHandlers) { h.checkout = checkout }
}

// WithRequestExports enables GET /requests/{requestID}/quote.pdf. catalog resolves delivery labels.
func WithRequestExports(exports services.QuoteExportService, catalog services.CatalogService) RequestHandlersOption {
	return func(h *RequestHandlers) {
		h.exports = exports
		h.catalog = catalog
	}
}

// WithRequestIdempotency wraps the create and pay endpoints with mw.
func WithRequestIdempotency(mw func(http.Handler) http.Handler) RequestHandlersOption {
	return func(h *RequestHandlers) { h.idempotency = mw }
}

// NewRequestHandlers constructs request handlers.
func NewRequestHandlers(requests services.RequestService, opts ...RequestHandlersOption) *RequestHandlers {
	h := &RequestHandlers{requests: requests}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers client-facing request endpoints.
func (h *RequestHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	idem := r
	if h.idempotency != nil {
		idem = r.With(h.idempotency)
	}
	idem.Post("/requests", h.submitRequest)
	r.Get("/requests/{requestID}", h.getRequest)
	r.Put("/requests/{requestID}/onboarding", h.recordOnboarding)
	r.Get("/requests/{requestID}/quote.pdf", h.requestPDF)
	r.Post("/requests/{requestID}/checkout:quote", h.checkoutQuote)
	idem.Post("/requests/{requestID}/checkout:pay", h.checkoutPay)
}

// AdminRoutes registers the operator request book endpoints.
func (h *RequestHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/requests", h.listRequests)
	r.Patch("/requests/{requestID}", h.updateRequest)
	r.Get("/stats", h.stats)
}

type submitRequestPayload struct {
	ClientName     string              `json:"clientName"`
	ClientEmail    string              `json:"clientEmail"`
	ClientPhone    string              `json:"clientPhone"`
	ProjectName    string              `json:"projectName"`
	DeveloperEmail string              `json:"developerEmail"`
	Config         *quoteConfigPayload `json:"config"`
	SRS            *srsPriceRequest    `json:"srs"`
	ProceedToPay   bool                `json:"proceedToPay"`
}

func (p submitRequestPayload) toCommand() services.SubmitRequestCommand {
	cmd := services.SubmitRequestCommand{
		ClientName:     p.ClientName,
		ClientEmail:    p.ClientEmail,
		ClientPhone:    p.ClientPhone,
		ProjectName:    p.ProjectName,
		DeveloperEmail: p.DeveloperEmail,
		ProceedToPay:   p.ProceedToPay,
	}
	if p.Config != nil {
		cfg := p.Config.toDomain()
		cmd.Config = &cfg
	}
	if p.SRS != nil {
		srs := p.SRS.toCommand()
		cmd.SRS = &srs
	}
	return cmd
}

func (h *RequestHandlers) submitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requests == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "request service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload submitRequestPayload
	if err := httpx.DecodeJSON(r, maxRequestBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	req, err := h.requests.Submit(ctx, payload.toCommand())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/requests/"+req.ID)
	httpx.WriteJSON(w, http.StatusCreated, newRequestResponse(req))
}

func (h *RequestHandlers) getRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requests == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "request service unavailable", http.StatusServiceUnavailable))
		return
	}
	req, err := h.requests.Get(ctx, strings.TrimSpace(chi.URLParam(r, "requestID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRequestResponse(req))
}

func (h *RequestHandlers) recordOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requests == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "request service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload onboardingPayload
	if err := httpx.DecodeJSON(r, maxOnboardingBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	req, err := h.requests.RecordOnboarding(ctx, services.OnboardingCommand{
		RequestID: strings.TrimSpace(chi.URLParam(r, "requestID")),
		State:     payload.toDomain(),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRequestResponse(req))
}

func (h *RequestHandlers) requestPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requests == nil || h.exports == nil || h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "quote export unavailable", http.StatusServiceUnavailable))
		return
	}

	req, err := h.requests.Get(ctx, strings.TrimSpace(chi.URLParam(r, "requestID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	catalog, err := h.catalog.Effective(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	data, err := h.exports.Render(ctx, services.QuoteDocumentForRequest(req, catalog))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	name := req.ProjectName
	if strings.TrimSpace(name) == "" {
		name = "quote-" + req.ID
	}
	writePDF(w, services.ExportFileName(name), data)
}

type checkoutQuotePayload struct {
	Mode     string `json:"mode"`
	Coupon   string `json:"coupon"`
	Currency string `json:"currency"`
}

func (p checkoutQuotePayload) toCommand(requestID string) services.CheckoutQuoteCommand {
	return services.CheckoutQuoteCommand{
		RequestID:  requestID,
		Mode:       services.PaymentMode(strings.ToLower(strings.TrimSpace(p.Mode))),
		CouponCode: p.Coupon,
		Currency:   p.Currency,
	}
}

func (h *RequestHandlers) checkoutQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "checkout unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload checkoutQuotePayload
	if err := httpx.DecodeJSON(r, maxCheckoutBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	quote, err := h.checkout.Quote(ctx, payload.toCommand(strings.TrimSpace(chi.URLParam(r, "requestID"))))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newCheckoutQuoteResponse(quote))
}

type billingPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

type cardPayload struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type checkoutPayPayload struct {
	checkoutQuotePayload
	Method        string         `json:"method"`
	Billing       billingPayload `json:"billing"`
	Card          cardPayload    `json:"card"`
	AcceptedTerms bool           `json:"acceptedTerms"`
}

type checkoutReceiptResponse struct {
	PaymentID string                `json:"paymentId"`
	PaidAt    time.Time             `json:"paidAt"`
	Quote     checkoutQuoteResponse `json:"quote"`
	Request   requestResponse       `json:"request"`
}

func (h *RequestHandlers) checkoutPay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "checkout unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload checkoutPayPayload
	if err := httpx.DecodeJSON(r, maxCheckoutBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	receipt, err := h.checkout.Pay(ctx, services.CheckoutPayCommand{
		CheckoutQuoteCommand: payload.checkoutQuotePayload.toCommand(strings.TrimSpace(chi.URLParam(r, "requestID"))),
		Method:               payload.Method,
		Billing: services.BillingDetails{
			Name:    payload.Billing.Name,
			Email:   payload.Billing.Email,
			Phone:   payload.Billing.Phone,
			Address: payload.Billing.Address,
			City:    payload.Billing.City,
			Country: payload.Billing.Country,
			Zip:     payload.Billing.Zip,
		},
		Card: services.CardDetails{
			Number: payload.Card.Number,
			Expiry: payload.Card.Expiry,
			CVV:    payload.Card.CVV,
		},
		AcceptedTerms: payload.AcceptedTerms,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkoutReceiptResponse{
		PaymentID: receipt.PaymentID,
		PaidAt:    receipt.PaidAt,
		Quote:     newCheckoutQuoteResponse(receipt.Quote),
		Request:   newRequestResponse(receipt.Request),
	})
}

type requestListResponse struct {
	Items         []requestResponse `json:"items"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

var requestListOptions = pagination.Options{
	Filters: map[string][]string{
		"status": {
			string(domain.RequestStatusNew),
			string(domain.RequestStatusInProgress),
			string(domain.RequestStatusCompleted),
		},
	},
}

func (h *RequestHandlers) listRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requests == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "request service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, requestListOptions)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	filter := services.RequestListFilter{
		Pagination: services.Pagination{PageSize: params.PageSize, PageToken: params.PageToken},
	}
	if raw, ok := params.Filter("status"); ok {
		status := services.RequestStatus(raw)
		filter.Status = &status
	}

	page, err := h.requests.List(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	resp := requestListResponse{Items: make([]requestResponse, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, item := range page.Items {
		resp.Items = append(resp.Items, newRequestResponse(item))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type updateRequestPayload struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
}

func (h *RequestHandlers) updateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requests == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "request service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload updateRequestPayload
	if err := httpx.DecodeJSON(r, maxOnboardingBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if payload.Status == nil && payload.Progress == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status or progress is required", http.StatusBadRequest))
		return
	}
	cmd := services.UpdateRequestCommand{ID: strings.TrimSpace(chi.URLParam(r, "requestID")), Progress: payload.Progress}
	if payload.Status != nil {
		status := services.RequestStatus(strings.TrimSpace(*payload.Status))
		cmd.Status = &status
	}
	req, err := h.requests.Update(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRequestResponse(req))
}

type statsResponse struct {
	TotalRequests int     `json:"totalRequests"`
	Active        int     `json:"active"`
	Completed     int     `json:"completed"`
	Revenue       float64 `json:"revenue"`
}

func (h *RequestHandlers) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.requests == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "request service unavailable", http.StatusServiceUnavailable))
		return
	}
	stats, err := h.requests.Stats(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, statsResponse{
		TotalRequests: stats.TotalRequests,
		Active:        stats.Active,
		Completed:     stats.Completed,
		Revenue:       stats.Revenue,
	})
}
