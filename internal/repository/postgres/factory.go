package postgres

import (
	"context"

	repo "github.com/baharkarakas/paywall-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repositories struct {
	Wallets      repo.Wallets
	Entitlements repo.Entitlements
	Payments     repo.Payments
	Catalog      repo.Catalog
	Ledger       repo.Ledger
	AuditLogs    repo.AuditLogs
	Tx           repo.TxManager
}

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

func NewRepositories(db DB) Repositories {
	return Repositories{
		Wallets:      &walletsRepo{db},
		Entitlements: &entitlementsRepo{db},
		Payments:     &paymentsRepo{db},
		Catalog:      &catalogRepo{db},
		Ledger:       &ledgerRepo{db},
		AuditLogs:    &auditLogsRepo{db},
		Tx:           NewTxManager(db),
	}
}

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn returns the transaction bound to ctx, or the pool.
func conn(ctx context.Context, db querier) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}
