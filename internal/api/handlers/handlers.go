// Package handlers adapts HTTP requests onto the paywall services.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/paywall-backend/internal/api/httpx"
	"github.com/baharkarakas/paywall-backend/internal/api/validate"
	"github.com/baharkarakas/paywall-backend/internal/middleware"
	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/baharkarakas/paywall-backend/internal/services"
	"github.com/baharkarakas/paywall-backend/internal/webhook"
)

type EntitlementReader interface {
	Get(ctx context.Context, userID, workID, episodeID string) (models.EntitlementView, error)
}

type OrderIssuer interface {
	CreateOrder(ctx context.Context, in services.CreateOrderInput) (models.Payment, error)
	Get(ctx context.Context, userID, orderID string) (models.Payment, error)
}

type PointsCrediter interface {
	ManualCredit(ctx context.Context, userID string, amount int64, reference string) (int64, error)
}

type WebhookSettler interface {
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (services.SettlementResult, error)
}

type Unlocker interface {
	UnlockWithPoints(ctx context.Context, in services.UnlockInput) (services.UnlockResult, error)
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	return uid, ok
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request", err)
		return false
	}
	return true
}

// writeServiceError maps service and webhook errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ip *services.InsufficientPointsError
	var fe *services.FieldError
	switch {
	case errors.As(err, &ip):
		httpx.WriteJSON(w, http.StatusConflict, map[string]any{
			"error": "not_enough_points",
			"code":  "not_enough_points",
			"need":  ip.Need,
		})
	case errors.As(err, &fe):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", fe.Error(), validate.Errs{{Field: fe.Field, Msg: "required"}})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, services.ErrPointsMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, services.ErrPaymentNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "payment not found", nil)
	case errors.Is(err, webhook.ErrInvalidSignature):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_signature", "invalid signature", nil)
	case errors.Is(err, webhook.ErrInvalidPayload):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "invalid payload", nil)
	default:
		slog.Error("request failed", "path", r.URL.Path, "request_id", middleware.RequestIDFrom(r.Context()), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
