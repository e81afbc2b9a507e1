package handlers

import (
	"net/http"

	"github.com/baharkarakas/paywall-backend/internal/api/httpx"
	"github.com/baharkarakas/paywall-backend/internal/middleware"
	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/baharkarakas/paywall-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	Orders        OrderIssuer
	Wallet        PointsCrediter
	DefaultWorkID string
}

type createOrderReq struct {
	WorkID    string `json:"work_id"`
	EpisodeID string `json:"episode_id" validate:"required"`
	Amount    int64  `json:"amount" validate:"gt=0"`
	Points    int64  `json:"points" validate:"gte=0"`
	OrderName string `json:"order_name" validate:"max=200"`
}

type createOrderResp struct {
	OK        bool   `json:"ok"`
	OrderID   string `json:"order_id"`
	WorkID    string `json:"work_id"`
	EpisodeID string `json:"episode_id"`
	Amount    int64  `json:"amount"`
	Points    int64  `json:"points"`
	Currency  string `json:"currency"`
	OrderName string `json:"order_name"`
}

// CreateOrder handles POST /payments/create-order.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createOrderReq
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.WorkID == "" {
		req.WorkID = h.DefaultWorkID
	}

	p, err := h.Orders.CreateOrder(r.Context(), services.CreateOrderInput{
		UserID:    uid,
		WorkID:    req.WorkID,
		EpisodeID: req.EpisodeID,
		Amount:    req.Amount,
		Points:    req.Points,
		OrderName: req.OrderName,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, createOrderResp{
		OK:        true,
		OrderID:   p.OrderID,
		WorkID:    p.WorkID,
		EpisodeID: p.EpisodeID,
		Amount:    p.Amount,
		Points:    p.Points,
		Currency:  p.Currency,
		OrderName: p.OrderName,
	})
}

type confirmReq struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

// Confirm handles POST /payments/confirm, the manual credit path used before
// webhooks are wired up. The router restricts it to dev or admins.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req confirmReq
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ref := r.Header.Get(middleware.HeaderIdempotencyKey)
	if ref == "" {
		ref = uuid.NewString()
	}

	balance, err := h.Wallet.ManualCredit(r.Context(), uid, req.Amount, "confirm:"+ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "points": balance})
}

type paymentResp struct {
	OK bool `json:"ok"`
	models.Payment
}

// Get handles GET /payments/{order_id}; callers only see their own orders.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	p, err := h.Orders.Get(r.Context(), uid, chi.URLParam(r, "order_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p.RawPayload = nil
	httpx.WriteJSON(w, http.StatusOK, paymentResp{OK: true, Payment: p})
}
