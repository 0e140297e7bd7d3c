package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/httpx"
	"github.com/august-web/dev-quoteX/internal/services"
)

const (
	maxQuoteRequestBody     = 64 * 1024
	maxSRSTextBody          = 512 * 1024
	defaultSRSUploadLimit   = 5 << 20
	srsUploadField          = "file"
	multipartMemoryOverhead = 64 * 1024
)

// QuoteHandlers serves wizard pricing, SRS estimation, and PDF export.
type QuoteHandlers struct {
	quotes      services.QuoteService
	exports     services.QuoteExportService
	currency    *services.CurrencyDisplay
	uploadLimit int64
}

// QuoteHandlersOption customises QuoteHandlers.
type QuoteHandlersOption func(*QuoteHandlers)

// WithQuoteExports enables /quotes:export.
func WithQuoteExports(exports services.QuoteExportService) QuoteHandlersOption {
	return func(h *QuoteHandlers) { h.exports = exports }
}

// WithQuoteCurrency enables display blocks on price responses.
func WithQuoteCurrency(currency *services.CurrencyDisplay) QuoteHandlersOption {
	return func(h *QuoteHandlers) { h.currency = currency }
}

// WithSRSUploadLimit bounds multipart SRS documents.
func WithSRSUploadLimit(limit int64) QuoteHandlersOption {
	return func(h *QuoteHandlers) {
		if limit > 0 {
			h.uploadLimit = limit
		}
	}
}

// NewQuoteHandlers constructs quote handlers.
func NewQuoteHandlers(quotes services.QuoteService, opts ...QuoteHandlersOption) *QuoteHandlers {
	h := &QuoteHandlers{quotes: quotes, uploadLimit: defaultSRSUploadLimit}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers quote and SRS endpoints.
func (h *QuoteHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/quotes:price", h.priceQuote)
	r.Post("/quotes:evaluate", h.evaluateQuote)
	r.Post("/quotes:apply-suggestion", h.applySuggestion)
	r.Post("/quotes:export", h.exportQuote)
	r.Get("/srs/options", h.srsOptions)
	r.Post("/srs:analyze", h.analyzeSRS)
	r.Post("/srs:price", h.priceSRS)
}

type quotePriceResponse struct {
	Config  quoteConfigPayload `json:"config"`
	Price   priceResponse      `json:"price"`
	Guard   guardResponse      `json:"guard"`
	Display *displayPayload    `json:"display,omitempty"`
}

func (h *QuoteHandlers) priceQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload quoteConfigPayload
	if err := httpx.DecodeJSON(r, maxQuoteRequestBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	result, err := h.quotes.PriceQuote(ctx, payload.toDomain())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := quotePriceResponse{
		Config: newQuoteConfigPayload(result.Config),
		Price:  newPriceResponse(result.Price),
		Guard:  newGuardResponse(result.Guard),
	}
	display, err := h.display(result.Price.Total, displayCurrency(r, result.Config.Currency))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	resp.Display = display
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *QuoteHandlers) evaluateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload quoteConfigPayload
	if err := httpx.DecodeJSON(r, maxQuoteRequestBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newGuardResponse(h.quotes.EvaluateQuote(ctx, payload.toDomain())))
}

type applySuggestionRequest struct {
	Config quoteConfigPayload      `json:"config"`
	Action suggestionActionPayload `json:"action"`
}

type applySuggestionResponse struct {
	Config quoteConfigPayload `json:"config"`
	Guard  guardResponse      `json:"guard"`
}

func (h *QuoteHandlers) applySuggestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload applySuggestionRequest
	if err := httpx.DecodeJSON(r, maxQuoteRequestBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	next, err := services.ApplySuggestion(payload.Config.toDomain(), services.SuggestionAction{
		Type:  domain.SuggestionActionType(strings.TrimSpace(payload.Action.Type)),
		Value: payload.Action.Value,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, applySuggestionResponse{
		Config: newQuoteConfigPayload(next),
		Guard:  newGuardResponse(h.quotes.EvaluateQuote(ctx, next)),
	})
}

type exportQuoteRequest struct {
	Title     string                 `json:"title"`
	Total     int64                  `json:"total"`
	Breakdown []breakdownLinePayload `json:"breakdown"`
	Delivery  string                 `json:"delivery,omitempty"`
	Pages     int                    `json:"pages,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Archive   bool                   `json:"archive,omitempty"`
}

type archivedQuoteResponse struct {
	Name        string    `json:"name"`
	Bucket      string    `json:"bucket"`
	ObjectPath  string    `json:"objectPath"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (h *QuoteHandlers) exportQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.exports == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "quote export unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload exportQuoteRequest
	if err := httpx.DecodeJSON(r, maxQuoteRequestBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	name := services.ExportFileName(payload.Name)
	result, err := h.exports.Export(ctx, services.ExportQuoteCommand{
		Document: services.QuoteDocument{
			Title:     payload.Title,
			Total:     payload.Total,
			Breakdown: breakdownToDomain(payload.Breakdown),
			Delivery:  payload.Delivery,
			Pages:     payload.Pages,
		},
		Archive: payload.Archive,
		Name:    name,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if result.Archived != nil {
		httpx.WriteJSON(w, http.StatusCreated, archivedQuoteResponse{
			Name:        name,
			Bucket:      result.Archived.Bucket,
			ObjectPath:  result.Archived.ObjectPath,
			DownloadURL: result.Archived.DownloadURL,
			ExpiresAt:   result.Archived.ExpiresAt,
		})
		return
	}
	writePDF(w, name, result.PDF)
}

type srsLevelPayload struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rate       int64   `json:"rate"`
	Multiplier float64 `json:"multiplier"`
	Floor      int64   `json:"floor"`
}

type srsAddonPayload struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Price int64  `json:"price"`
}

type srsOptionsResponse struct {
	Levels []srsLevelPayload `json:"levels"`
	Addons []srsAddonPayload `json:"addons"`
}

func (h *QuoteHandlers) srsOptions(w http.ResponseWriter, r *http.Request) {
	resp := srsOptionsResponse{}
	for _, level := range services.ExperienceLevels() {
		resp.Levels = append(resp.Levels, srsLevelPayload{
			ID:         string(level.ID),
			Name:       level.Name,
			Rate:       level.Rate,
			Multiplier: level.Multiplier,
			Floor:      level.Floor,
		})
	}
	for _, addon := range services.SRSAddons() {
		resp.Addons = append(resp.Addons, srsAddonPayload{ID: addon.ID, Label: addon.Label, Price: addon.Price})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type analyzeSRSRequest struct {
	Text string `json:"text"`
}

func (h *QuoteHandlers) analyzeSRS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, apiErr := h.decodeAnalyzeCommand(w, r)
	if apiErr != nil {
		httpx.WriteError(ctx, w, *apiErr)
		return
	}
	analysis, err := h.quotes.AnalyzeSRS(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newSRSAnalysisPayload(analysis))
}

// decodeAnalyzeCommand accepts either a JSON {text} body or a multipart form with a "file" part and
// an optional "text" field.
func (h *QuoteHandlers) decodeAnalyzeCommand(w http.ResponseWriter, r *http.Request) (services.AnalyzeSRSCommand, *httpx.Error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var payload analyzeSRSRequest
		if err := httpx.DecodeJSON(r, maxSRSTextBody, &payload); err != nil {
			return services.AnalyzeSRSCommand{}, invalidUpload(httpx.BodyError(err))
		}
		return services.AnalyzeSRSCommand{Text: payload.Text}, nil
	}

	tooLarge := httpx.BodyError(httpx.ErrBodyTooLarge)
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit+multipartMemoryOverhead)
	if err := r.ParseMultipartForm(h.uploadLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.AnalyzeSRSCommand{}, &tooLarge
		}
		return services.AnalyzeSRSCommand{}, invalidUpload(httpx.NewError("invalid_request", fmt.Sprintf("invalid multipart form: %v", err), http.StatusBadRequest))
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	cmd := services.AnalyzeSRSCommand{Text: r.FormValue("text")}
	file, header, err := r.FormFile(srsUploadField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return cmd, nil
	case err != nil:
		return services.AnalyzeSRSCommand{}, invalidUpload(httpx.NewError("invalid_request", fmt.Sprintf("read upload: %v", err), http.StatusBadRequest))
	}
	defer file.Close()

	if header.Size > h.uploadLimit {
		return services.AnalyzeSRSCommand{}, &tooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, h.uploadLimit+1))
	if err != nil {
		return services.AnalyzeSRSCommand{}, invalidUpload(httpx.NewError("invalid_request", fmt.Sprintf("read upload: %v", err), http.StatusBadRequest))
	}
	if int64(len(data)) > h.uploadLimit {
		return services.AnalyzeSRSCommand{}, &tooLarge
	}
	cmd.Document = &services.SRSDocument{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return cmd, nil
}

func invalidUpload(e httpx.Error) *httpx.Error { return &e }

func (h *QuoteHandlers) priceSRS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload srsPriceRequest
	if err := httpx.DecodeJSON(r, maxSRSTextBody, &payload); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	quote, err := h.quotes.PriceSRS(ctx, payload.toCommand())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	resp := newSRSQuoteResponse(quote)
	display, err := h.display(quote.Total, displayCurrency(r, ""))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	resp.Display = display
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// display converts total when a non-base currency was asked for. Base-currency requests carry no block.
func (h *QuoteHandlers) display(total int64, code string) (*displayPayload, error) {
	if code == "" || strings.EqualFold(code, services.BaseCurrency) {
		return nil, nil
	}
	amount, err := h.currency.Convert(total, code)
	if err != nil {
		return nil, err
	}
	return newDisplayPayload(&amount), nil
}

func displayCurrency(r *http.Request, fallback string) string {
	if code := strings.TrimSpace(r.URL.Query().Get("currency")); code != "" {
		return code
	}
	return strings.TrimSpace(fallback)
}

func writePDF(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
