package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/baharkarakas/paywall-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

type walletsRepo struct{ db querier }

func (r *walletsRepo) Get(ctx context.Context, userID string) (models.Wallet, error) {
	w := models.Wallet{UserID: userID}
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT points, updated_at FROM wallets WHERE user_id=$1`,
		userID,
	).Scan(&w.Points, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return w, nil
	}
	if err != nil {
		return models.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (r *walletsRepo) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	var points int64
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO wallets (user_id, points, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE
		    SET points = wallets.points + EXCLUDED.points,
		        updated_at = now()
		 RETURNING points`,
		userID, amount,
	).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("credit wallet: %w", err)
	}
	return points, nil
}

func (r *walletsRepo) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	var points int64
	// balance check and write happen in one statement
	err := conn(ctx, r.db).QueryRow(ctx,
		`UPDATE wallets
		    SET points = points - $2,
		        updated_at = now()
		  WHERE user_id = $1 AND points >= $2
		  RETURNING points`,
		userID, amount,
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, repository.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("debit wallet: %w", err)
	}
	return points, nil
}
