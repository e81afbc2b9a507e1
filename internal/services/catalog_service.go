package services

import (
	"context"

	"github.com/baharkarakas/paywall-backend/internal/models"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

// CatalogDefaults apply to episodes without a catalog row.
type CatalogDefaults struct {
	TotalParts    int
	FreeParts     int
	PointsPerPart int64
}

type CatalogService struct {
	r        repo.Catalog
	defaults CatalogDefaults
}

func NewCatalogService(r repo.Catalog, d CatalogDefaults) *CatalogService {
	return &CatalogService{r: r, defaults: d}
}

// Episode returns the unlock configuration, filling gaps from the defaults.
func (s *CatalogService) Episode(ctx context.Context, workID, episodeID string) (models.Episode, error) {
	e, ok, err := s.r.Episode(ctx, workID, episodeID)
	if err != nil {
		return models.Episode{}, err
	}
	if !ok {
		e = models.Episode{
			WorkID:     workID,
			EpisodeID:  episodeID,
			TotalParts: s.defaults.TotalParts,
			FreeParts:  s.defaults.FreeParts,
		}
	}
	if e.PointsPerPart <= 0 {
		e.PointsPerPart = s.defaults.PointsPerPart
	}
	e.FreeParts = e.FreeBoundary()
	return e, nil
}

func (s *CatalogService) ListEpisodes(ctx context.Context, workID string) ([]models.Episode, error) {
	return s.r.ListEpisodes(ctx, workID)
}

func (s *CatalogService) SetEpisode(ctx context.Context, e models.Episode) error {
	if err := requireFields("work_id", e.WorkID, "episode_id", e.EpisodeID); err != nil {
		return err
	}
	if e.TotalParts <= 0 || e.FreeParts < 0 || e.PointsPerPart < 0 {
		return ErrInvalidAmount
	}
	return s.r.UpsertEpisode(ctx, e)
}

// PointsForAmount resolves the package for a payment amount. Amounts without
// a package convert one to one.
func (s *CatalogService) PointsForAmount(ctx context.Context, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	p, ok, err := s.r.PackageForAmount(ctx, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		return amount, nil
	}
	return p.Points, nil
}
