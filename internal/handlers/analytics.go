package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/httpx"
	"github.com/august-web/dev-quoteX/internal/services"
)

const (
	maxAnalyticsBody         = 4 * 1024
	defaultAnalyticsLimit    = 120
	defaultAnalyticsInterval = time.Minute
)

// AnalyticsHandlers accepts wizard usage events and serves the tallies to operators.
type AnalyticsHandlers struct {
	analytics services.AnalyticsService
	limiter   *windowLimiter
}

// AnalyticsHandlersOption customises AnalyticsHandlers.
type AnalyticsHandlersOption func(*AnalyticsHandlers)

// WithAnalyticsRateLimit caps events per client address. A non-positive limit disables limiting.
func WithAnalyticsRateLimit(limit int, every time.Duration, clock func() time.Time) AnalyticsHandlersOption {
	return func(h *AnalyticsHandlers) { h.limiter = newWindowLimiter(limit, every, clock) }
}

// NewAnalyticsHandlers constructs analytics handlers with the default per-client limit.
func NewAnalyticsHandlers(analytics services.AnalyticsService, opts ...AnalyticsHandlersOption) *AnalyticsHandlers {
	h := &AnalyticsHandlers{
		analytics: analytics,
		limiter:   newWindowLimiter(defaultAnalyticsLimit, defaultAnalyticsInterval, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the event intake endpoint.
func (h *AnalyticsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(rateLimit(h.limiter)).Post("/analytics/events", h.trackEvent)
}

// AdminRoutes registers the summary endpoint.
func (h *AnalyticsHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/analytics", h.summary)
}

type trackEventPayload struct {
	Type      string `json:"type"`
	Step      *int   `json:"step"`
	FeatureID string `json:"featureId"`
	ExtraID   string `json:"extraId"`
}

func (h *AnalyticsHandlers) trackEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analytics == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "analytics unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload trackEventPayload
	if err := httpx.DecodeJSON(r, maxAnalyticsBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	event, err := h.analytics.Track(ctx, services.TrackEventCommand{
		Type:      domain.AnalyticsEventType(payload.Type),
		Step:      payload.Step,
		FeatureID: payload.FeatureID,
		ExtraID:   payload.ExtraID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, newAnalyticsEventResponse(event))
}

type analyticsSummaryResponse struct {
	StepViews         map[int]int    `json:"stepViews"`
	FeatureSelections map[string]int `json:"featureSelections"`
	ExtraSelections   map[string]int `json:"extraSelections"`
	DropOffs          map[int]int    `json:"dropOffs"`
	QuoteCompletions  int            `json:"quoteCompletions"`
}

func (h *AnalyticsHandlers) summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analytics == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "analytics unavailable", http.StatusServiceUnavailable))
		return
	}
	summary, err := h.analytics.Summary(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, analyticsSummaryResponse{
		StepViews:         summary.StepViews,
		FeatureSelections: summary.FeatureSelections,
		ExtraSelections:   summary.ExtraSelections,
		DropOffs:          summary.DropOffs,
		QuoteCompletions:  summary.QuoteCompletions,
	})
}
