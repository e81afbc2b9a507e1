package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/events"
	"github.com/baharkarakas/paywall-backend/internal/metrics"
	"github.com/baharkarakas/paywall-backend/internal/models"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

type UnlockInput struct {
	UserID     string
	WorkID     string
	EpisodeID  string
	TargetPart int
}

type UnlockResult struct {
	Points            int64 `json:"points"`
	UnlockedUntilPart int   `json:"unlocked_until_part"`
	Charged           int64 `json:"charged"`
}

// errAlreadyUnlocked aborts the transaction when a concurrent unlock got there first.
var errAlreadyUnlocked = errors.New("already unlocked")

// UnlockService spends points to extend a user's playable range.
type UnlockService struct {
	catalog      *CatalogService
	wallets      repo.Wallets
	entitlements repo.Entitlements
	ledger       repo.Ledger
	audit        repo.AuditLogs
	tx           repo.TxManager
	emitter      events.Emitter
}

type UnlockDeps struct {
	Catalog      *CatalogService
	Wallets      repo.Wallets
	Entitlements repo.Entitlements
	Ledger       repo.Ledger
	Audit        repo.AuditLogs
	Tx           repo.TxManager
	Emitter      events.Emitter
}

func NewUnlockService(d UnlockDeps) *UnlockService {
	return &UnlockService{
		catalog:      d.Catalog,
		wallets:      d.Wallets,
		entitlements: d.Entitlements,
		ledger:       d.Ledger,
		audit:        d.Audit,
		tx:           d.Tx,
		emitter:      d.Emitter,
	}
}

// UnlockWithPoints charges one part's price and moves the boundary to the
// target part. Targets at or below the current boundary cost nothing.
func (s *UnlockService) UnlockWithPoints(ctx context.Context, in UnlockInput) (UnlockResult, error) {
	if err := requireFields("user_id", in.UserID, "work_id", in.WorkID, "episode_id", in.EpisodeID); err != nil {
		return UnlockResult{}, err
	}
	if in.TargetPart < 1 {
		return UnlockResult{}, ErrInvalidTarget
	}

	ep, err := s.catalog.Episode(ctx, in.WorkID, in.EpisodeID)
	if err != nil {
		return UnlockResult{}, err
	}
	free := ep.FreeBoundary()
	target := in.TargetPart
	if target > ep.TotalParts {
		target = ep.TotalParts
	}
	cost := ep.PointsPerPart

	current, err := s.entitlements.GetUnlockedUntil(ctx, in.UserID, in.WorkID, in.EpisodeID, free)
	if err != nil {
		return UnlockResult{}, err
	}
	if target <= current {
		return s.noop(ctx, in.UserID, current)
	}

	var res UnlockResult
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		// debit first: the row lock serialises concurrent unlocks for this user
		balance, err := s.wallets.Debit(ctx, in.UserID, cost)
		if err != nil {
			return err
		}
		now, err := s.entitlements.GetUnlockedUntil(ctx, in.UserID, in.WorkID, in.EpisodeID, free)
		if err != nil {
			return err
		}
		if target <= now {
			return errAlreadyUnlocked
		}
		until, err := s.entitlements.AdvanceUnlockedUntil(ctx, in.UserID, in.WorkID, in.EpisodeID, free, target)
		if err != nil {
			return err
		}
		ref := fmt.Sprintf("%s/%s/%d", in.WorkID, in.EpisodeID, until)
		if err := s.ledger.Append(ctx, models.LedgerEntry{
			UserID:       in.UserID,
			Kind:         models.LedgerDebit,
			Reason:       models.ReasonUnlock,
			Reference:    ref,
			Points:       cost,
			BalanceAfter: balance,
		}); err != nil {
			return err
		}
		res = UnlockResult{Points: balance, UnlockedUntilPart: until, Charged: cost}
		return s.audit.Create(ctx, models.AuditLog{
			EntityType: "entitlement",
			EntityID:   &ref,
			Action:     "unlocked",
			Details:    map[string]any{"user_id": in.UserID, "charged": cost, "balance": balance},
		})
	})
	switch {
	case errors.Is(err, errAlreadyUnlocked):
		until, gerr := s.entitlements.GetUnlockedUntil(ctx, in.UserID, in.WorkID, in.EpisodeID, free)
		if gerr != nil {
			return UnlockResult{}, gerr
		}
		return s.noop(ctx, in.UserID, until)
	case errors.Is(err, repo.ErrInsufficientFunds):
		metrics.UnlocksTotal.WithLabelValues("insufficient").Inc()
		ip := &InsufficientPointsError{Need: cost}
		if w, werr := s.wallets.Get(ctx, in.UserID); werr != nil {
			slog.Error("read balance after failed debit", "user_id", in.UserID, "err", werr)
		} else {
			ip.Have = &w.Points
		}
		return UnlockResult{}, ip
	case err != nil:
		metrics.UnlocksTotal.WithLabelValues("error").Inc()
		return UnlockResult{}, fmt.Errorf("unlock: %w", err)
	}

	metrics.UnlocksTotal.WithLabelValues("unlocked").Inc()
	metrics.PointsDebited.Add(float64(cost))
	slog.Info("parts unlocked", "user_id", in.UserID, "work_id", in.WorkID, "episode_id", in.EpisodeID,
		"unlocked_until_part", res.UnlockedUntilPart, "charged", cost, "balance", res.Points)
	if s.emitter != nil {
		s.emitter.Emit(events.RoutingEntitlementUnlocked, events.EntitlementUnlocked{
			UserID:            in.UserID,
			WorkID:            in.WorkID,
			EpisodeID:         in.EpisodeID,
			UnlockedUntilPart: res.UnlockedUntilPart,
			PointsSpent:       cost,
			PointsLeft:        res.Points,
			At:                time.Now().UTC(),
		})
	}
	return res, nil
}

func (s *UnlockService) noop(ctx context.Context, userID string, until int) (UnlockResult, error) {
	w, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return UnlockResult{}, err
	}
	metrics.UnlocksTotal.WithLabelValues("noop").Inc()
	return UnlockResult{Points: w.Points, UnlockedUntilPart: until}, nil
}
