package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Settlement
	SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_settlements_total",
			Help: "Webhook settlement outcomes",
		},
		[]string{"outcome"}, // settled|already_settled|not_found|ignored|marked_failed|error
	)
	WebhookSignatureFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_webhook_signature_failures_total",
			Help: "Webhook deliveries rejected by signature verification",
		},
	)
	OrdersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_orders_created_total",
			Help: "Pending payment records created",
		},
	)

	// Points
	PointsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_credited_total",
			Help: "Points credited to wallets",
		},
		[]string{"reason"},
	)
	PointsDebited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_debited_total",
			Help: "Points spent on unlocks",
		},
	)
	UnlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unlocks_total",
			Help: "Unlock requests by outcome",
		},
		[]string{"outcome"}, // unlocked|noop|insufficient|error
	)

	// Worker kuyruğu
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// /metrics endpoint'i için handler
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestLatency,
			SettlementsTotal,
			WebhookSignatureFailures,
			OrdersCreated,
			PointsCredited,
			PointsDebited,
			UnlocksTotal,
			WorkerQueueDepth,
		)
	})
}
