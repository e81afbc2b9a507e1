package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/metrics"
	"github.com/baharkarakas/paywall-backend/internal/models"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
	"github.com/google/uuid"
)

const defaultOrderName = "Points top-up"

type CreateOrderInput struct {
	UserID    string
	WorkID    string
	EpisodeID string
	Amount    int64
	// Points is optional; when set it must equal the package value for Amount.
	Points    int64
	OrderName string
}

// OrderService issues pending payment records ahead of the provider redirect.
type OrderService struct {
	payments repo.Payments
	catalog  *CatalogService
	provider string
	currency string
	newID    func() string
}

func NewOrderService(p repo.Payments, c *CatalogService, provider, currency string) *OrderService {
	return &OrderService{payments: p, catalog: c, provider: provider, currency: currency, newID: NewOrderID}
}

// NewOrderID returns "order_<unix>_<random hex>". The random part is a v4 UUID
// so ids cannot be enumerated.
func NewOrderID() string {
	return fmt.Sprintf("order_%d_%s", time.Now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (models.Payment, error) {
	if err := requireFields("user_id", in.UserID, "work_id", in.WorkID, "episode_id", in.EpisodeID); err != nil {
		return models.Payment{}, err
	}
	if in.Amount <= 0 {
		return models.Payment{}, ErrInvalidAmount
	}

	points, err := s.catalog.PointsForAmount(ctx, in.Amount)
	if err != nil {
		return models.Payment{}, err
	}
	if in.Points > 0 && in.Points != points {
		return models.Payment{}, ErrPointsMismatch
	}

	name := strings.TrimSpace(in.OrderName)
	if name == "" {
		name = defaultOrderName
	}

	p := models.Payment{
		Provider:  s.provider,
		UserID:    in.UserID,
		WorkID:    in.WorkID,
		EpisodeID: in.EpisodeID,
		OrderName: name,
		Amount:    in.Amount,
		Currency:  s.currency,
		Points:    points,
		Status:    models.PaymentPending,
	}

	// a collision is practically impossible; retry once anyway rather than fail the purchase
	for attempt := 0; attempt < 2; attempt++ {
		p.OrderID = s.newID()
		created, err := s.payments.Create(ctx, p)
		if errors.Is(err, repo.ErrDuplicate) {
			continue
		}
		if err != nil {
			return models.Payment{}, err
		}
		metrics.OrdersCreated.Inc()
		slog.Info("order created", "order_id", created.OrderID, "user_id", created.UserID, "amount", created.Amount, "points", created.Points)
		return created, nil
	}
	return models.Payment{}, fmt.Errorf("create order: %w", repo.ErrDuplicate)
}

// Get returns the caller's own payment; other users' orders look like missing ones.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (models.Payment, error) {
	p, err := s.payments.Get(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Payment{}, ErrPaymentNotFound
	}
	if err != nil {
		return models.Payment{}, err
	}
	if userID != "" && p.UserID != userID {
		return models.Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.payments.ListByUser(ctx, userID, limit, offset)
}
