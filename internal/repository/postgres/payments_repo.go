package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/baharkarakas/paywall-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

type paymentsRepo struct{ db querier }

const paymentCols = `order_id, provider, user_id, work_id, episode_id, order_name,
       amount, currency, points, status, raw_payload, paid_at, created_at`

func scanPayment(row pgx.Row) (models.Payment, error) {
	var p models.Payment
	var raw []byte
	err := row.Scan(&p.OrderID, &p.Provider, &p.UserID, &p.WorkID, &p.EpisodeID, &p.OrderName,
		&p.Amount, &p.Currency, &p.Points, &p.Status, &raw, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		return models.Payment{}, err
	}
	p.RawPayload = raw
	return p, nil
}

func (r *paymentsRepo) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	out, err := scanPayment(conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO payments (order_id, provider, user_id, work_id, episode_id, order_name, amount, currency, points, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING `+paymentCols,
		p.OrderID, p.Provider, p.UserID, p.WorkID, p.EpisodeID, p.OrderName, p.Amount, p.Currency, p.Points, p.Status,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Payment{}, repository.ErrDuplicate
		}
		return models.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return out, nil
}

func (r *paymentsRepo) Get(ctx context.Context, orderID string) (models.Payment, error) {
	p, err := scanPayment(conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE order_id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *paymentsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT `+paymentCols+`
		   FROM payments
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentsRepo) MarkPaid(ctx context.Context, orderID string, raw []byte, paidAt time.Time) (models.Payment, bool, error) {
	// the status guard is the idempotency gate: of two racing deliveries only one
	// gets a row back
	p, err := scanPayment(conn(ctx, r.db).QueryRow(ctx,
		`UPDATE payments
		    SET status = 'paid',
		        paid_at = $3,
		        raw_payload = $2
		  WHERE order_id = $1 AND status <> 'paid'
		  RETURNING `+paymentCols,
		orderID, string(raw), paidAt,
	))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, false, fmt.Errorf("mark payment paid: %w", err)
	}

	existing, err := r.Get(ctx, orderID)
	if err != nil {
		return models.Payment{}, false, err
	}
	return existing, false, nil
}

func (r *paymentsRepo) MarkFailed(ctx context.Context, orderID string, raw []byte) (bool, error) {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE payments
		    SET status = 'failed',
		        raw_payload = $2
		  WHERE order_id = $1 AND status = 'pending'`,
		orderID, string(raw),
	)
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}
	// unknown, paid and already failed orders are all left alone
	return tag.RowsAffected() == 1, nil
}
