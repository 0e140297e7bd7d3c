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
	"github.com/august-web/dev-quoteX/internal/services"
)

func newAnalyticsRouter(analytics *fakeAnalyticsService, opts ...AnalyticsHandlersOption) chi.Router {
	h := NewAnalyticsHandlers(analytics, opts...)
	router := chi.NewRouter()
	h.Routes(router)
	router.Route("/admin", h.AdminRoutes)
	return router
}

func TestAnalyticsHandlers_Track(t *testing.T) {
	step := 2
	analytics := &fakeAnalyticsService{event: services.AnalyticsEvent{
		ID:         "evt-1",
		Type:       domain.EventStepView,
		Step:       &step,
		OccurredAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	router := newAnalyticsRouter(analytics)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/analytics/events", strings.NewReader(`{"type":"step_view","step":2}`)))

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, analytics.tracked, 1)
	require.Equal(t, domain.EventStepView, analytics.tracked[0].Type)
	require.NotNil(t, analytics.tracked[0].Step)
	require.Equal(t, 2, *analytics.tracked[0].Step)

	var resp analyticsEventResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "evt-1", resp.ID)
}

func TestAnalyticsHandlers_TrackInvalid(t *testing.T) {
	router := newAnalyticsRouter(&fakeAnalyticsService{err: services.ErrAnalyticsInvalidEvent})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/analytics/events", strings.NewReader(`{"type":"page_scroll"}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_event")
}

func TestAnalyticsHandlers_TrackRateLimited(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	analytics := &fakeAnalyticsService{}
	router := newAnalyticsRouter(analytics, WithAnalyticsRateLimit(2, time.Minute, func() time.Time { return now }))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/analytics/events", strings.NewReader(`{"type":"quote_complete"}`))
		req.RemoteAddr = "203.0.113.7:5000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusAccepted, send().Code)
	require.Equal(t, http.StatusAccepted, send().Code)
	limited := send()
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	require.Equal(t, "60", limited.Header().Get("Retry-After"))
	require.Len(t, analytics.tracked, 2)

	now = now.Add(time.Minute)
	require.Equal(t, http.StatusAccepted, send().Code)
}

func TestAnalyticsHandlers_Summary(t *testing.T) {
	analytics := &fakeAnalyticsService{summary: services.AnalyticsSummary{
		StepViews:         map[int]int{0: 4, 1: 3},
		FeatureSelections: map[string]int{"seo": 2},
		ExtraSelections:   map[string]int{},
		DropOffs:          map[int]int{1: 1},
		QuoteCompletions:  2,
	}}
	router := newAnalyticsRouter(analytics)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/analytics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"stepViews":{"0":4,"1":3},"featureSelections":{"seo":2},"extraSelections":{},"dropOffs":{"1":1},"quoteCompletions":2}`, rr.Body.String())
}

func TestWindowLimiterNilAdmitsEverything(t *testing.T) {
	var limiter *windowLimiter
	ok, _ := limiter.Allow("anyone")
	require.True(t, ok)
	require.Nil(t, newWindowLimiter(0, time.Minute, nil))
}
