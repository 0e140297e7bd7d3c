package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/august-web/dev-quoteX/internal/platform/httpx"
	"github.com/august-web/dev-quoteX/internal/platform/observability"
	"github.com/august-web/dev-quoteX/internal/platform/pagination"
	"github.com/august-web/dev-quoteX/internal/repositories"
	"github.com/august-web/dev-quoteX/internal/services"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	code   string
	status int
}

var serviceErrorMappings = []errorMapping{
	{services.ErrQuoteInvalidConfig, "invalid_config", http.StatusBadRequest},
	{services.ErrQuoteInvalidAction, "invalid_action", http.StatusBadRequest},
	{services.ErrQuoteBlocked, "quote_blocked", http.StatusUnprocessableEntity},
	{services.ErrSRSUnknownLevel, "unknown_level", http.StatusBadRequest},
	{services.ErrSRSEmptyInput, "empty_input", http.StatusBadRequest},
	{services.ErrSRSUnsupportedDocument, "unsupported_document", http.StatusUnsupportedMediaType},
	{services.ErrCatalogInvalidOverride, "invalid_override", http.StatusBadRequest},
	{services.ErrCatalogUnknownNamespace, "unknown_namespace", http.StatusBadRequest},
	{services.ErrPricingRuleInvalid, "invalid_rules", http.StatusBadRequest},
	{services.ErrRequestInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrRequestInvalidStatus, "invalid_status", http.StatusBadRequest},
	{services.ErrRequestNotFound, "request_not_found", http.StatusNotFound},
	{services.ErrRequestConflict, "request_conflict", http.StatusConflict},
	{services.ErrCheckoutInvalidCoupon, "invalid_coupon", http.StatusBadRequest},
	{services.ErrCheckoutAlreadyPaid, "already_paid", http.StatusConflict},
	{services.ErrCheckoutPaymentFailed, "payment_failed", http.StatusPaymentRequired},
	{services.ErrCheckoutUnavailable, "checkout_unavailable", http.StatusServiceUnavailable},
	{services.ErrCheckoutInvalidInput, "invalid_checkout", http.StatusBadRequest},
	{services.ErrAnalyticsInvalidEvent, "invalid_event", http.StatusBadRequest},
	{services.ErrQuoteExportInvalidDocument, "invalid_document", http.StatusBadRequest},
	{services.ErrQuoteExportArchiveUnavailable, "archive_unavailable", http.StatusServiceUnavailable},
	{services.ErrCurrencyUnsupported, "unsupported_currency", http.StatusBadRequest},
	{pagination.ErrInvalidPageToken, "invalid_page_token", http.StatusBadRequest},
	{pagination.ErrInvalidPageSize, "invalid_page_size", http.StatusBadRequest},
	{pagination.ErrInvalidFilter, "invalid_filter", http.StatusBadRequest},
	{services.ErrCatalogRepositoryMissing, "service_unavailable", http.StatusServiceUnavailable},
	{services.ErrPricingRuleRepositoryMissing, "service_unavailable", http.StatusServiceUnavailable},
	{services.ErrRequestRepositoryMissing, "service_unavailable", http.StatusServiceUnavailable},
	{services.ErrAnalyticsRepositoryMissing, "service_unavailable", http.StatusServiceUnavailable},
}

// writeServiceError maps service sentinels onto the error envelope. Unmapped errors are logged and answered with 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var validation *services.CheckoutValidationError
	if errors.As(err, &validation) {
		details := make(map[string]any, len(validation.Fields))
		for field, msg := range validation.Fields {
			details[field] = msg
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_checkout", "payment details are invalid", http.StatusBadRequest).
			WithDetails(map[string]any{"fields": details}))
		return
	}
	for _, m := range serviceErrorMappings {
		if errors.Is(err, m.target) {
			httpx.WriteError(ctx, w, httpx.NewError(m.code, err.Error(), m.status))
			return
		}
	}
	switch {
	case repositories.IsUnavailable(err):
		httpx.WriteError(ctx, w, httpx.NewError("store_unavailable", "storage backend is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout))
	default:
		observability.FromContext(ctx).Error("unhandled service error", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	httpx.WriteError(ctx, w, httpx.BodyError(err))
}
