package models

// Episode is the per-episode unlock configuration.
type Episode struct {
	WorkID        string `json:"work_id"`
	EpisodeID     string `json:"episode_id"`
	TotalParts    int    `json:"total_parts"`
	FreeParts     int    `json:"free_parts"`
	PointsPerPart int64  `json:"points_per_part"`
}

// FreeBoundary is the free tier, never above the episode's part count.
func (e Episode) FreeBoundary() int {
	if e.FreeParts > e.TotalParts {
		return e.TotalParts
	}
	if e.FreeParts < 0 {
		return 0
	}
	return e.FreeParts
}

// Clamp bounds a part index to [FreeBoundary, TotalParts].
func (e Episode) Clamp(part int) int {
	if part > e.TotalParts {
		part = e.TotalParts
	}
	if free := e.FreeBoundary(); part < free {
		part = free
	}
	return part
}

type PointPackage struct {
	Amount int64 `json:"amount"`
	Points int64 `json:"points"`
}
