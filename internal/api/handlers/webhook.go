package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/baharkarakas/paywall-backend/internal/api/httpx"
	"github.com/baharkarakas/paywall-backend/internal/services"
	"github.com/baharkarakas/paywall-backend/internal/webhook"
)

const maxWebhookBytes = 1 << 20

type WebhookHandler struct {
	Svc WebhookSettler
}

// Handle is POST /payments/webhook. The body is read as raw bytes and handed to
// the verifier untouched.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "unreadable body", nil)
		return
	}

	res, err := h.Svc.HandleWebhook(r.Context(), payload, r.Header)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "outcome": res.Outcome})
	case errors.Is(err, webhook.ErrMissingSecret):
		httpx.WriteError(w, http.StatusInternalServerError, "webhook_not_configured", "webhook secret not configured", nil)
	case errors.Is(err, services.ErrInvalidPoints):
		httpx.WriteError(w, http.StatusInternalServerError, "credit_failed", "payment settled but points could not be credited", nil)
	default:
		writeServiceError(w, r, err)
	}
}
