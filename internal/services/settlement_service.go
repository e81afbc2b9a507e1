package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/events"
	"github.com/baharkarakas/paywall-backend/internal/metrics"
	"github.com/baharkarakas/paywall-backend/internal/models"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
	"github.com/baharkarakas/paywall-backend/internal/webhook"
)

type SettlementResult struct {
	Outcome models.SettleOutcome `json:"outcome"`
	OrderID string               `json:"order_id,omitempty"`
	Balance int64                `json:"balance,omitempty"`
}

// SettlementService turns verified provider callbacks into wallet credits.
// Each order credits its user at most once no matter how often the provider
// redelivers.
type SettlementService struct {
	verifier *webhook.Verifier
	payments repo.Payments
	wallets  repo.Wallets
	ledger   repo.Ledger
	audit    repo.AuditLogs
	tx       repo.TxManager
	emitter  events.Emitter
	now      func() time.Time
}

type SettlementDeps struct {
	Verifier *webhook.Verifier
	Payments repo.Payments
	Wallets  repo.Wallets
	Ledger   repo.Ledger
	Audit    repo.AuditLogs
	Tx       repo.TxManager
	Emitter  events.Emitter
}

func NewSettlementService(d SettlementDeps) *SettlementService {
	return &SettlementService{
		verifier: d.Verifier,
		payments: d.Payments,
		wallets:  d.Wallets,
		ledger:   d.Ledger,
		audit:    d.Audit,
		tx:       d.Tx,
		emitter:  d.Emitter,
		now:      time.Now,
	}
}

// HandleWebhook verifies payload against headers, then settles the order it
// names. Unknown orders and unrecognised event types are acknowledged without
// side effects.
func (s *SettlementService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (SettlementResult, error) {
	if s.verifier == nil {
		return SettlementResult{}, webhook.ErrMissingSecret
	}
	if err := s.verifier.Verify(payload, headers); err != nil {
		metrics.WebhookSignatureFailures.Inc()
		slog.Warn("webhook signature rejected", "webhook_id", headers.Get(webhook.HeaderID), "err", err)
		return SettlementResult{}, err
	}

	ev, err := webhook.ParseEvent(payload)
	if err != nil {
		return SettlementResult{}, err
	}
	if ev.OrderID == "" || ev.Kind == webhook.EventUnknown {
		slog.Info("webhook ignored", "type", ev.Type, "order_id", ev.OrderID)
		return s.record(SettlementResult{Outcome: models.SettleIgnored, OrderID: ev.OrderID}), nil
	}

	if ev.Kind == webhook.EventFailed {
		return s.markFailed(ctx, ev, payload)
	}
	return s.settle(ctx, ev, payload)
}

func (s *SettlementService) markFailed(ctx context.Context, ev webhook.Event, payload []byte) (SettlementResult, error) {
	applied, err := s.payments.MarkFailed(ctx, ev.OrderID, payload)
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues("error").Inc()
		return SettlementResult{}, fmt.Errorf("mark failed: %w", err)
	}
	res := SettlementResult{Outcome: models.SettleIgnored, OrderID: ev.OrderID}
	if applied {
		res.Outcome = models.SettleMarkedFailed
		s.writeAudit(ctx, ev.OrderID, "failed", map[string]any{"event_type": ev.Type})
	}
	return s.record(res), nil
}

func (s *SettlementService) settle(ctx context.Context, ev webhook.Event, payload []byte) (SettlementResult, error) {
	res := SettlementResult{OrderID: ev.OrderID}
	var (
		settled   models.Payment
		badPoints bool
	)

	err := s.tx.Run(ctx, func(ctx context.Context) error {
		p, applied, err := s.payments.MarkPaid(ctx, ev.OrderID, payload, s.now())
		if errors.Is(err, repo.ErrNotFound) {
			res.Outcome = models.SettleNotFound
			return nil
		}
		if err != nil {
			return err
		}
		if !applied {
			res.Outcome = models.SettleAlreadySettled
			return nil
		}
		settled = p

		if p.Points <= 0 {
			// keep the paid flag so redeliveries do not loop; an operator credits by hand
			badPoints = true
			res.Outcome = models.SettleApplied
			return s.audit.Create(ctx, auditEntry(p.OrderID, "credit_failed", map[string]any{
				"user_id": p.UserID, "points": p.Points, "event_type": ev.Type,
			}))
		}

		balance, err := s.wallets.Credit(ctx, p.UserID, p.Points)
		if err != nil {
			return err
		}
		if err := s.ledger.Append(ctx, models.LedgerEntry{
			UserID:       p.UserID,
			Kind:         models.LedgerCredit,
			Reason:       models.ReasonSettlement,
			Reference:    p.OrderID,
			Points:       p.Points,
			BalanceAfter: balance,
		}); err != nil {
			return err
		}
		res.Outcome = models.SettleApplied
		res.Balance = balance
		return s.audit.Create(ctx, auditEntry(p.OrderID, "settled", map[string]any{
			"user_id": p.UserID, "points": p.Points, "balance": balance, "event_type": ev.Type,
		}))
	})
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues("error").Inc()
		slog.Error("settlement failed", "order_id", ev.OrderID, "err", err)
		return SettlementResult{}, fmt.Errorf("settle %s: %w", ev.OrderID, err)
	}

	if badPoints {
		metrics.SettlementsTotal.WithLabelValues("error").Inc()
		slog.Error("paid order has no points to credit", "order_id", settled.OrderID, "user_id", settled.UserID, "points", settled.Points)
		return SettlementResult{}, ErrInvalidPoints
	}

	if res.Outcome == models.SettleApplied {
		metrics.PointsCredited.WithLabelValues(string(models.ReasonSettlement)).Add(float64(settled.Points))
		slog.Info("payment settled", "order_id", settled.OrderID, "user_id", settled.UserID, "points", settled.Points, "balance", res.Balance)
		if s.emitter != nil {
			s.emitter.Emit(events.RoutingPaymentSettled, events.PaymentSettled{
				OrderID:   settled.OrderID,
				UserID:    settled.UserID,
				Points:    settled.Points,
				Balance:   res.Balance,
				EventType: ev.Type,
				SettledAt: s.now().UTC(),
			})
		}
	} else {
		slog.Info("webhook had no effect", "order_id", ev.OrderID, "outcome", res.Outcome)
	}
	return s.record(res), nil
}

func (s *SettlementService) record(res SettlementResult) SettlementResult {
	metrics.SettlementsTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

func (s *SettlementService) writeAudit(ctx context.Context, orderID, action string, details map[string]any) {
	if err := s.audit.Create(ctx, auditEntry(orderID, action, details)); err != nil {
		slog.Error("audit write failed", "order_id", orderID, "action", action, "err", err)
	}
}

func auditEntry(orderID, action string, details map[string]any) models.AuditLog {
	id := orderID
	return models.AuditLog{
		EntityType: "payment",
		EntityID:   &id,
		Action:     action,
		Details:    details,
	}
}
