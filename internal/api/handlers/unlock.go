package handlers

import (
	"net/http"

	"github.com/baharkarakas/paywall-backend/internal/api/httpx"
	"github.com/baharkarakas/paywall-backend/internal/services"
)

type UnlockHandler struct {
	Svc           Unlocker
	DefaultWorkID string
}

type unlockReq struct {
	WorkID     string `json:"work_id"`
	EpisodeID  string `json:"episode_id" validate:"required"`
	TargetPart int    `json:"target_unlock_until_part" validate:"gte=1"`
}

type unlockResp struct {
	OK                bool  `json:"ok"`
	PointsLeft        int64 `json:"points_left"`
	UnlockedUntilPart int   `json:"unlocked_until_part"`
	Charged           int64 `json:"charged"`
}

// WithPoints handles POST /unlock/with-points.
func (h *UnlockHandler) WithPoints(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req unlockReq
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.WorkID == "" {
		req.WorkID = h.DefaultWorkID
	}

	res, err := h.Svc.UnlockWithPoints(r.Context(), services.UnlockInput{
		UserID:     uid,
		WorkID:     req.WorkID,
		EpisodeID:  req.EpisodeID,
		TargetPart: req.TargetPart,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, unlockResp{
		OK:                true,
		PointsLeft:        res.Points,
		UnlockedUntilPart: res.UnlockedUntilPart,
		Charged:           res.Charged,
	})
}
