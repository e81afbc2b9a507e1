package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/worker"
)

const publishTimeout = 5 * time.Second

// Dispatcher publishes on the worker pool so request handlers never wait on the broker.
// Publish failures are logged and dropped.
type Dispatcher struct {
	pub Publisher
	wp  *worker.Pool
}

func NewDispatcher(pub Publisher, wp *worker.Pool) *Dispatcher {
	if pub == nil {
		pub = NoopPublisher{}
	}
	return &Dispatcher{pub: pub, wp: wp}
}

func (d *Dispatcher) Emit(routingKey string, body any) {
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := d.pub.Publish(ctx, routingKey, body); err != nil {
			slog.Error("event publish failed", "routing_key", routingKey, "err", err)
		}
	}
	if !d.wp.TrySubmit(job) {
		slog.Warn("event dropped, worker queue full", "routing_key", routingKey)
	}
}
