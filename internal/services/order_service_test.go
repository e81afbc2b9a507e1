package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrders(st *memStore) *OrderService {
	return NewOrderService(memPayments{st}, NewCatalogService(memCatalog{st}, testDefaults), "portone", "KRW")
}

func TestCreateOrder(t *testing.T) {
	st := newMemStore()
	svc := newOrders(st)

	p, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep1", Amount: 3000, Points: 3300,
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^order_\d+_[0-9a-f]{32}$`), p.OrderID)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, int64(3300), p.Points)
	assert.Equal(t, "KRW", p.Currency)
	assert.Equal(t, defaultOrderName, p.OrderName)
	assert.Contains(t, st.payments, p.OrderID)
}

func TestCreateOrderResolvesPoints(t *testing.T) {
	svc := newOrders(newMemStore())

	p, err := svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "u1", WorkID: "w", EpisodeID: "e", Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, int64(5800), p.Points)
}

func TestCreateOrderRejects(t *testing.T) {
	svc := newOrders(newMemStore())

	tests := []struct {
		name string
		in   CreateOrderInput
		want error
	}{
		{"zero amount", CreateOrderInput{UserID: "u1", WorkID: "w", EpisodeID: "e"}, ErrInvalidAmount},
		{"negative amount", CreateOrderInput{UserID: "u1", WorkID: "w", EpisodeID: "e", Amount: -5}, ErrInvalidAmount},
		{"missing episode", CreateOrderInput{UserID: "u1", WorkID: "w", Amount: 1000}, ErrMissingField},
		{"points mismatch", CreateOrderInput{UserID: "u1", WorkID: "w", EpisodeID: "e", Amount: 3000, Points: 9999}, ErrPointsMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateOrderRetriesOnCollision(t *testing.T) {
	st := newMemStore()
	svc := newOrders(st)
	st.payments["order_dup"] = models.Payment{OrderID: "order_dup"}

	ids := []string{"order_dup", "order_fresh"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	p, err := svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "u1", WorkID: "w", EpisodeID: "e", Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, "order_fresh", p.OrderID)
}

func TestGetOrderOwnerOnly(t *testing.T) {
	st := newMemStore()
	seedPending(st, "order_1", "u1", 1000)
	svc := newOrders(st)

	_, err := svc.Get(context.Background(), "u1", "order_1")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "u2", "order_1")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = svc.Get(context.Background(), "u1", "order_nope")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
