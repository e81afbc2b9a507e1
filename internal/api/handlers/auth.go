package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/api/httpx"
	"github.com/baharkarakas/paywall-backend/internal/auth"
)

type AuthHandler struct {
	TM    *auth.TokenManager
	IsDev bool
}

type loginReq struct {
	// Dev kısa yol: user_id ve role kabul edilir
	UserID string `json:"user_id" validate:"required,max=128"`
	Role   string `json:"role" validate:"omitempty,oneof=user admin"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

func writePair(w http.ResponseWriter, p auth.Pair) {
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
		ExpiresIn:    int64(time.Until(p.AccessExp).Truncate(time.Second).Seconds()),
	})
}

// DevLogin issues tokens for any user id. Only mounted outside production.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsDev {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
		return
	}
	var req loginReq
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	p, err := h.TM.GeneratePair(req.UserID, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePair(w, p)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.TM.Refresh(req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	writePair(w, p)
}
