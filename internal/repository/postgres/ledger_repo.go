package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/baharkarakas/paywall-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type ledgerRepo struct{ db querier }

func (r *ledgerRepo) Append(ctx context.Context, e models.LedgerEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := conn(ctx, r.db).Exec(ctx,
		`INSERT INTO point_ledger (id, user_id, kind, reason, reference, points, balance_after)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.UserID, e.Kind, e.Reason, e.Reference, e.Points, e.BalanceAfter,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}

func (r *ledgerRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT id, user_id, kind, reason, reference, points, balance_after, created_at
		   FROM point_ledger
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var out []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Reason, &e.Reference, &e.Points, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
