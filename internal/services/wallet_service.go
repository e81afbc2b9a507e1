package services

import (
	"context"
	"fmt"

	"github.com/baharkarakas/paywall-backend/internal/metrics"
	"github.com/baharkarakas/paywall-backend/internal/models"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

type WalletService struct {
	wallets repo.Wallets
	ledger  repo.Ledger
	tx      repo.TxManager
}

func NewWalletService(w repo.Wallets, l repo.Ledger, tx repo.TxManager) *WalletService {
	return &WalletService{wallets: w, ledger: l, tx: tx}
}

func (s *WalletService) Current(ctx context.Context, userID string) (models.Wallet, error) {
	if err := requireFields("user_id", userID); err != nil {
		return models.Wallet{}, err
	}
	return s.wallets.Get(ctx, userID)
}

// ManualCredit adds points outside the payment flow (dev confirm path, operator grants).
func (s *WalletService) ManualCredit(ctx context.Context, userID string, amount int64, reference string) (int64, error) {
	if err := requireFields("user_id", userID, "reference", reference); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.tx.Run(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.wallets.Credit(ctx, userID, amount)
		if err != nil {
			return err
		}
		return s.ledger.Append(ctx, models.LedgerEntry{
			UserID:       userID,
			Kind:         models.LedgerCredit,
			Reason:       models.ReasonManual,
			Reference:    reference,
			Points:       amount,
			BalanceAfter: balance,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("manual credit: %w", err)
	}
	metrics.PointsCredited.WithLabelValues(string(models.ReasonManual)).Add(float64(amount))
	return balance, nil
}

func (s *WalletService) History(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.ledger.ListByUser(ctx, userID, limit, offset)
}
