package handlers

import (
	"net/http"
	"strings"

	"github.com/baharkarakas/paywall-backend/internal/api/httpx"
	"github.com/baharkarakas/paywall-backend/internal/api/validate"
)

type EntitlementHandler struct {
	Svc           EntitlementReader
	DefaultWorkID string
}

type entitlementResp struct {
	OK                bool  `json:"ok"`
	Points            int64 `json:"points"`
	IsSubscribed      bool  `json:"is_subscribed"`
	UnlockedUntilPart int   `json:"unlocked_until_part"`
	TotalParts        int   `json:"total_parts"`
	PointsPerPart     int64 `json:"points_per_part"`
}

// Get handles GET /entitlements?work_id&episode_id.
func (h *EntitlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	workID := strings.TrimSpace(q.Get("work_id"))
	if workID == "" {
		workID = h.DefaultWorkID
	}
	episodeID := strings.TrimSpace(q.Get("episode_id"))
	if episodeID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid request",
			validate.Errs{{Field: "episode_id", Msg: "required"}})
		return
	}

	v, err := h.Svc.Get(r.Context(), uid, workID, episodeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entitlementResp{
		OK:                true,
		Points:            v.Points,
		IsSubscribed:      v.IsSubscribed,
		UnlockedUntilPart: v.UnlockedUntilPart,
		TotalParts:        v.TotalParts,
		PointsPerPart:     v.PointsPerPart,
	})
}
