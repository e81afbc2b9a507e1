package models

import "time"

// Entitlement records that parts 1..UnlockedUntilPart of an episode are playable.
type Entitlement struct {
	UserID            string    `json:"user_id"`
	WorkID            string    `json:"work_id"`
	EpisodeID         string    `json:"episode_id"`
	UnlockedUntilPart int       `json:"unlocked_until_part"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EntitlementView is the read projection returned to clients.
type EntitlementView struct {
	Points            int64 `json:"points"`
	IsSubscribed      bool  `json:"is_subscribed"`
	UnlockedUntilPart int   `json:"unlocked_until_part"`
	TotalParts        int   `json:"total_parts"`
	PointsPerPart     int64 `json:"points_per_part"`
}
