package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type entitlementsRepo struct{ db querier }

func (r *entitlementsRepo) GetUnlockedUntil(ctx context.Context, userID, workID, episodeID string, freeDefault int) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT unlocked_until_part
		   FROM entitlements
		  WHERE user_id=$1 AND work_id=$2 AND episode_id=$3`,
		userID, workID, episodeID,
	).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return freeDefault, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get entitlement: %w", err)
	}
	if n < freeDefault {
		return freeDefault, nil
	}
	return n, nil
}

func (r *entitlementsRepo) AdvanceUnlockedUntil(ctx context.Context, userID, workID, episodeID string, freeDefault, target int) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO entitlements (user_id, work_id, episode_id, unlocked_until_part, updated_at)
		 VALUES ($1, $2, $3, GREATEST($4::int, $5::int), now())
		 ON CONFLICT (user_id, work_id, episode_id) DO UPDATE
		    SET unlocked_until_part = GREATEST(entitlements.unlocked_until_part, EXCLUDED.unlocked_until_part),
		        updated_at = now()
		 RETURNING unlocked_until_part`,
		userID, workID, episodeID, freeDefault, target,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("advance entitlement: %w", err)
	}
	return n, nil
}
