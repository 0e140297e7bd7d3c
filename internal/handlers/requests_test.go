package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/idempotency"
	"github.com/august-web/dev-quoteX/internal/services"
)

func sampleRequest() services.ClientRequest {
	created := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	return services.ClientRequest{
		ID:          "01HV0000000000000000000000",
		ClientName:  "Ada",
		ClientEmail: "ada@example.com",
		ProjectName: "Shop Launch",
		Status:      domain.RequestStatusNew,
		Mode:        domain.QuoteModeWizard,
		Config: &services.QuoteConfig{
			WebsiteType:    "landing",
			PageCount:      3,
			DeliveryOption: "standard",
		},
		Total:     600,
		Breakdown: []services.BreakdownLine{{Item: "Landing Page", Price: 500}, {Item: "Additional pages (2)", Price: 100}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func newRequestRouter(requests *fakeRequestService, opts ...RequestHandlersOption) chi.Router {
	h := NewRequestHandlers(requests, opts...)
	router := chi.NewRouter()
	h.Routes(router)
	router.Route("/admin", h.AdminRoutes)
	return router
}

func TestRequestHandlers_Submit(t *testing.T) {
	requests := &fakeRequestService{request: sampleRequest()}
	router := newRequestRouter(requests)

	body := `{"clientName":"Ada","clientEmail":"ada@example.com","projectName":"Shop Launch","config":{"websiteType":"landing","pageCount":3,"deliveryOption":"standard"},"proceedToPay":true}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/api/v1/requests/01HV0000000000000000000000", rr.Header().Get("Location"))
	require.NotNil(t, requests.submitted)
	require.NotNil(t, requests.submitted.Config)
	require.Nil(t, requests.submitted.SRS)
	require.Equal(t, 3, requests.submitted.Config.PageCount)
	require.True(t, requests.submitted.ProceedToPay)

	var resp requestResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "new", resp.Status)
	require.Equal(t, int64(600), resp.Total)
	require.Len(t, resp.Breakdown, 2)
	require.NotNil(t, resp.Config)
}

func TestRequestHandlers_SubmitSRS(t *testing.T) {
	requests := &fakeRequestService{request: sampleRequest()}
	router := newRequestRouter(requests)

	body := `{"clientName":"Ada","clientEmail":"ada@example.com","srs":{"text":"Users login and pay","level":"senior","addons":["pm"]}}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, requests.submitted.SRS)
	require.Equal(t, domain.LevelSenior, requests.submitted.SRS.Level)
	require.Equal(t, []string{"pm"}, requests.submitted.SRS.Addons)
}

func TestRequestHandlers_SubmitBlocked(t *testing.T) {
	router := newRequestRouter(&fakeRequestService{err: services.ErrQuoteBlocked})

	body := `{"clientName":"Ada","clientEmail":"ada@example.com","config":{"websiteType":"ecommerce","pageCount":3,"deliveryOption":"standard"}}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "quote_blocked")
}

func TestRequestHandlers_SubmitIdempotentReplay(t *testing.T) {
	requests := &fakeRequestService{request: sampleRequest()}
	router := newRequestRouter(requests, WithRequestIdempotency(idempotency.Middleware(idempotency.NewMemoryStore())))

	body := `{"clientName":"Ada","clientEmail":"ada@example.com","config":{"websiteType":"landing","pageCount":3,"deliveryOption":"standard"}}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
		req.Header.Set(idempotency.DefaultHeader, "submit-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	second := send()

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, 1, requests.submits)
	require.Equal(t, "true", second.Header().Get(idempotency.ReplayHeader))
	require.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestRequestHandlers_GetNotFound(t *testing.T) {
	requests := &fakeRequestService{err: services.ErrRequestNotFound}
	router := newRequestRouter(requests)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/requests/missing", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "missing", requests.gotID)
}

func TestRequestHandlers_Onboarding(t *testing.T) {
	requests := &fakeRequestService{request: sampleRequest()}
	router := newRequestRouter(requests)

	body := `{"company":"Acme","goals":"Sell online","audience":"Makers","assets":{"logo":true},"milestones":{"kickoff":true,"design":false}}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/requests/01HV0000000000000000000000/onboarding", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, requests.onboarding)
	require.Equal(t, "01HV0000000000000000000000", requests.onboarding.RequestID)
	require.Equal(t, "Acme", requests.onboarding.State.Company)
	require.True(t, requests.onboarding.State.Milestones["kickoff"])
	require.False(t, requests.onboarding.State.Milestones["design"])
}

func TestRequestHandlers_QuotePDF(t *testing.T) {
	requests := &fakeRequestService{request: sampleRequest()}
	exports := &fakeExportService{pdf: []byte("%PDF-request")}
	router := newRequestRouter(requests, WithRequestExports(exports, &fakeCatalogService{catalog: testCatalog()}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/requests/01HV0000000000000000000000/quote.pdf", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "Shop-Launch.pdf")
	require.NotNil(t, exports.rendered)
	require.Equal(t, "Shop Launch", exports.rendered.Title)
	require.Equal(t, 3, exports.rendered.Pages)
	require.Equal(t, "3-4 weeks", exports.rendered.Delivery)
}

func TestRequestHandlers_CheckoutQuote(t *testing.T) {
	checkout := &fakeCheckoutService{quote: services.CheckoutQuote{
		RequestID: "r1",
		Mode:      services.PaymentModeDeposit,
		Subtotal:  1000,
		Base:      500,
		Coupon:    "SAVE10",
		Discount:  50,
		ToPay:     450,
		Display:   &services.DisplayAmount{Currency: "EUR", Rate: 0.92, Amount: 414, Formatted: "€414.00"},
	}}
	router := newRequestRouter(&fakeRequestService{}, WithRequestCheckout(checkout))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests/r1/checkout:quote", strings.NewReader(`{"mode":"Deposit","coupon":"save10","currency":"EUR"}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, checkout.quoted)
	require.Equal(t, "r1", checkout.quoted.RequestID)
	require.Equal(t, services.PaymentModeDeposit, checkout.quoted.Mode)
	require.Equal(t, "save10", checkout.quoted.CouponCode)

	var resp checkoutQuoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, int64(450), resp.ToPay)
	require.NotNil(t, resp.Display)
	require.Equal(t, "EUR", resp.Display.Currency)
}

func TestRequestHandlers_CheckoutQuoteInvalidCoupon(t *testing.T) {
	router := newRequestRouter(&fakeRequestService{}, WithRequestCheckout(&fakeCheckoutService{err: services.ErrCheckoutInvalidCoupon}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests/r1/checkout:quote", strings.NewReader(`{"mode":"full","coupon":"BOGUS"}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_coupon")
}

func TestRequestHandlers_CheckoutPay(t *testing.T) {
	paidAt := time.Date(2024, 4, 3, 9, 0, 0, 0, time.UTC)
	paid := sampleRequest()
	paid.DepositPaid = true
	checkout := &fakeCheckoutService{receipt: services.CheckoutReceipt{
		Quote:     services.CheckoutQuote{RequestID: paid.ID, Mode: services.PaymentModeDeposit, ToPay: 300},
		PaymentID: "pay_123",
		Request:   paid,
		PaidAt:    paidAt,
	}}
	router := newRequestRouter(&fakeRequestService{}, WithRequestCheckout(checkout))

	body := `{"mode":"deposit","method":"card","billing":{"name":"Ada","email":"ada@example.com","phone":"+1 555 0100","address":"1 Main St","city":"Springfield","country":"US","zip":"12345"},"card":{"number":"4242 4242 4242 4242","expiry":"12/30","cvv":"123"},"acceptedTerms":true}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests/"+paid.ID+"/checkout:pay", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, checkout.paid)
	require.Equal(t, paid.ID, checkout.paid.RequestID)
	require.Equal(t, "4242 4242 4242 4242", checkout.paid.Card.Number)
	require.Equal(t, "Springfield", checkout.paid.Billing.City)
	require.True(t, checkout.paid.AcceptedTerms)

	var resp checkoutReceiptResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "pay_123", resp.PaymentID)
	require.True(t, resp.Request.DepositPaid)
	require.True(t, resp.PaidAt.Equal(paidAt))
}

func TestRequestHandlers_CheckoutPayValidation(t *testing.T) {
	validation := &services.CheckoutValidationError{Fields: map[string]string{"card.number": "card number is invalid", "terms": "terms must be accepted"}}
	router := newRequestRouter(&fakeRequestService{}, WithRequestCheckout(&fakeCheckoutService{err: validation}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests/r1/checkout:pay", strings.NewReader(`{"mode":"full","card":{"number":"1234"}}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "invalid_checkout", body["error"])
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "card number is invalid", fields["card.number"])
}

func TestRequestHandlers_CheckoutPayAlreadyPaid(t *testing.T) {
	router := newRequestRouter(&fakeRequestService{}, WithRequestCheckout(&fakeCheckoutService{err: services.ErrCheckoutAlreadyPaid}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/requests/r1/checkout:pay", strings.NewReader(`{"mode":"full"}`)))

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestRequestHandlers_AdminList(t *testing.T) {
	first := sampleRequest()
	requests := &fakeRequestService{page: domain.CursorPage[services.ClientRequest]{
		Items:         []services.ClientRequest{first},
		NextPageToken: "next-token",
	}}
	router := newRequestRouter(requests)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/requests?status=in_progress&pageSize=5", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, requests.listFilter)
	require.Equal(t, 5, requests.listFilter.Pagination.PageSize)
	require.NotNil(t, requests.listFilter.Status)
	require.Equal(t, domain.RequestStatusInProgress, *requests.listFilter.Status)

	var resp requestListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, "next-token", resp.NextPageToken)
}

func TestRequestHandlers_AdminListUnknownStatus(t *testing.T) {
	requests := &fakeRequestService{}
	router := newRequestRouter(requests)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/requests?status=archived", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_filter")
	require.Nil(t, requests.listFilter)
}

func TestRequestHandlers_AdminListBadToken(t *testing.T) {
	requests := &fakeRequestService{}
	router := newRequestRouter(requests)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/requests?pageToken=%25%25%25", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_page_token")
	require.Nil(t, requests.listFilter)
}

func TestRequestHandlers_AdminUpdate(t *testing.T) {
	requests := &fakeRequestService{request: sampleRequest()}
	router := newRequestRouter(requests)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/admin/requests/r1", strings.NewReader(`{"status":"in_progress","progress":140}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, requests.updated)
	require.Equal(t, "r1", requests.updated.ID)
	require.Equal(t, domain.RequestStatusInProgress, *requests.updated.Status)
	require.Equal(t, 140, *requests.updated.Progress)
}

func TestRequestHandlers_AdminUpdateRequiresField(t *testing.T) {
	requests := &fakeRequestService{}
	router := newRequestRouter(requests)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/admin/requests/r1", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Nil(t, requests.updated)
}

func TestRequestHandlers_AdminStats(t *testing.T) {
	requests := &fakeRequestService{stats: services.RequestStats{TotalRequests: 3, Active: 2, Completed: 1, Revenue: 1500}}
	router := newRequestRouter(requests)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"totalRequests":3,"active":2,"completed":1,"revenue":1500}`, rr.Body.String())
}
