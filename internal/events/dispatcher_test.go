package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/baharkarakas/paywall-backend/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func TestDispatcherPublishesOnPool(t *testing.T) {
	pub := &recordingPublisher{}
	wp := worker.NewPool(2)
	d := NewDispatcher(pub, wp)

	d.Emit(RoutingPaymentSettled, PaymentSettled{OrderID: "order_1"})
	d.Emit(RoutingEntitlementUnlocked, EntitlementUnlocked{UserID: "u1"})
	wp.Stop()

	require.Len(t, pub.keys, 2)
	assert.ElementsMatch(t, []string{RoutingPaymentSettled, RoutingEntitlementUnlocked}, pub.keys)
}

func TestDispatcherSwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	wp := worker.NewPool(1)
	d := NewDispatcher(pub, wp)

	assert.NotPanics(t, func() { d.Emit(RoutingPaymentSettled, nil) })
	wp.Stop()
	assert.Len(t, pub.keys, 1)
}

func TestNilPublisherFallsBackToNoop(t *testing.T) {
	wp := worker.NewPool(1)
	d := NewDispatcher(nil, wp)
	d.Emit(RoutingPaymentSettled, nil)
	wp.Stop()
}
