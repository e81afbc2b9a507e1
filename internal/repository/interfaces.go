package repository

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicate         = errors.New("duplicate entry")
)

// TxManager runs fn inside one database transaction. Repositories called with
// the ctx passed to fn take part in that transaction.
type TxManager interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type Wallets interface {
	// Get returns a zero wallet when the user has none yet.
	Get(ctx context.Context, userID string) (models.Wallet, error)
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
	// Debit fails with ErrInsufficientFunds and leaves the balance untouched
	// when the result would go negative.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
}

type Entitlements interface {
	GetUnlockedUntil(ctx context.Context, userID, workID, episodeID string, freeDefault int) (int, error)
	// AdvanceUnlockedUntil stores max(existing or freeDefault, target) and returns it.
	AdvanceUnlockedUntil(ctx context.Context, userID, workID, episodeID string, freeDefault, target int) (int, error)
}

type Payments interface {
	Create(ctx context.Context, p models.Payment) (models.Payment, error)
	Get(ctx context.Context, orderID string) (models.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error)
	// MarkPaid flips a non-paid row to paid in a single conditional update.
	// applied is false when the row was already paid.
	MarkPaid(ctx context.Context, orderID string, raw []byte, paidAt time.Time) (p models.Payment, applied bool, err error)
	// MarkFailed only moves pending rows.
	MarkFailed(ctx context.Context, orderID string, raw []byte) (applied bool, err error)
}

type Catalog interface {
	Episode(ctx context.Context, workID, episodeID string) (models.Episode, bool, error)
	ListEpisodes(ctx context.Context, workID string) ([]models.Episode, error)
	UpsertEpisode(ctx context.Context, e models.Episode) error
	PackageForAmount(ctx context.Context, amount int64) (models.PointPackage, bool, error)
}

type Ledger interface {
	Append(ctx context.Context, e models.LedgerEntry) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// CachedResponse is a stored HTTP reply replayed for a repeated Idempotency-Key.
type CachedResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
}

type IdempotencyStore interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*CachedResponse, error)
	Save(ctx context.Context, key string, resp CachedResponse, ttl time.Duration) error
}
