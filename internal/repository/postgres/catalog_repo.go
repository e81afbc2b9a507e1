package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type catalogRepo struct{ db querier }

// Episode leaves PointsPerPart at zero when the row has no price override.
func (r *catalogRepo) Episode(ctx context.Context, workID, episodeID string) (models.Episode, bool, error) {
	e := models.Episode{WorkID: workID, EpisodeID: episodeID}
	var price *int64
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT total_parts, free_parts, points_per_part
		   FROM episodes
		  WHERE work_id=$1 AND episode_id=$2`,
		workID, episodeID,
	).Scan(&e.TotalParts, &e.FreeParts, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Episode{}, false, nil
	}
	if err != nil {
		return models.Episode{}, false, fmt.Errorf("get episode: %w", err)
	}
	if price != nil {
		e.PointsPerPart = *price
	}
	return e, true, nil
}

func (r *catalogRepo) ListEpisodes(ctx context.Context, workID string) ([]models.Episode, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT work_id, episode_id, total_parts, free_parts, COALESCE(points_per_part, 0)
		   FROM episodes
		  WHERE $1 = '' OR work_id = $1
		  ORDER BY work_id, episode_id`,
		workID,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []models.Episode
	for rows.Next() {
		var e models.Episode
		if err := rows.Scan(&e.WorkID, &e.EpisodeID, &e.TotalParts, &e.FreeParts, &e.PointsPerPart); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *catalogRepo) UpsertEpisode(ctx context.Context, e models.Episode) error {
	var price *int64
	if e.PointsPerPart > 0 {
		price = &e.PointsPerPart
	}
	_, err := conn(ctx, r.db).Exec(ctx,
		`INSERT INTO episodes (work_id, episode_id, total_parts, free_parts, points_per_part)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (work_id, episode_id) DO UPDATE
		    SET total_parts = EXCLUDED.total_parts,
		        free_parts = EXCLUDED.free_parts,
		        points_per_part = EXCLUDED.points_per_part`,
		e.WorkID, e.EpisodeID, e.TotalParts, e.FreeParts, price,
	)
	if err != nil {
		return fmt.Errorf("upsert episode: %w", err)
	}
	return nil
}

func (r *catalogRepo) PackageForAmount(ctx context.Context, amount int64) (models.PointPackage, bool, error) {
	p := models.PointPackage{Amount: amount}
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT points FROM point_packages WHERE amount=$1`, amount,
	).Scan(&p.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PointPackage{}, false, nil
	}
	if err != nil {
		return models.PointPackage{}, false, fmt.Errorf("get point package: %w", err)
	}
	return p, true, nil
}
