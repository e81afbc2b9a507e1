package services

import (
	"context"

	"github.com/baharkarakas/paywall-backend/internal/models"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

type EntitlementService struct {
	catalog      *CatalogService
	wallets      repo.Wallets
	entitlements repo.Entitlements
}

func NewEntitlementService(c *CatalogService, w repo.Wallets, e repo.Entitlements) *EntitlementService {
	return &EntitlementService{catalog: c, wallets: w, entitlements: e}
}

// Get is read-only. Users without an entitlement row see the free tier.
func (s *EntitlementService) Get(ctx context.Context, userID, workID, episodeID string) (models.EntitlementView, error) {
	if err := requireFields("user_id", userID, "work_id", workID, "episode_id", episodeID); err != nil {
		return models.EntitlementView{}, err
	}
	ep, err := s.catalog.Episode(ctx, workID, episodeID)
	if err != nil {
		return models.EntitlementView{}, err
	}
	w, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return models.EntitlementView{}, err
	}
	until, err := s.entitlements.GetUnlockedUntil(ctx, userID, workID, episodeID, ep.FreeBoundary())
	if err != nil {
		return models.EntitlementView{}, err
	}
	return models.EntitlementView{
		Points:            w.Points,
		IsSubscribed:      false,
		UnlockedUntilPart: ep.Clamp(until),
		TotalParts:        ep.TotalParts,
		PointsPerPart:     ep.PointsPerPart,
	}, nil
}
