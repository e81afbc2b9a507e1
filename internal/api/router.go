package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/paywall-backend/internal/api/handlers"
	"github.com/baharkarakas/paywall-backend/internal/auth"
	"github.com/baharkarakas/paywall-backend/internal/config"
	"github.com/baharkarakas/paywall-backend/internal/metrics"
	"github.com/baharkarakas/paywall-backend/internal/middleware"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

type RouterDeps struct {
	Cfg          config.Config
	Log          *slog.Logger
	Tokens       *auth.TokenManager
	Idempotency  repo.IdempotencyStore
	Entitlements handlers.EntitlementReader
	Orders       handlers.OrderIssuer
	Wallet       handlers.PointsCrediter
	Settlement   handlers.WebhookSettler
	Unlock       handlers.Unlocker
	// Health reports storage readiness; nil means always healthy.
	Health func(r *http.Request) error
}

func NewRouter(d RouterDeps) http.Handler {
	isDev := d.Cfg.IsDev()
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP, middleware.RequestID, middleware.Recover, middleware.AccessLog(log), middleware.HTTPMetrics)
	r.Use(middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.HeaderIdempotencyKey},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if d.Health != nil {
			if err := d.Health(req); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	authMW := middleware.NewAuthMiddleware(d.Tokens, isDev)
	idem := middleware.Idempotency(d.Idempotency)

	ah := &handlers.AuthHandler{TM: d.Tokens, IsDev: isDev}
	eh := &handlers.EntitlementHandler{Svc: d.Entitlements, DefaultWorkID: d.Cfg.DefaultWorkID}
	ph := &handlers.PaymentHandler{Orders: d.Orders, Wallet: d.Wallet, DefaultWorkID: d.Cfg.DefaultWorkID}
	wh := &handlers.WebhookHandler{Svc: d.Settlement}
	uh := &handlers.UnlockHandler{Svc: d.Unlock, DefaultWorkID: d.Cfg.DefaultWorkID}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(15 * time.Second))

		// ---------- auth ----------
		r.Post("/auth/dev-login", ah.DevLogin)
		r.Post("/auth/refresh", ah.Refresh)

		// ---------- provider callback (signature, no session) ----------
		r.Post("/payments/webhook", wh.Handle)

		// ---------- session ----------
		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth)

			r.Get("/entitlements", eh.Get)
			r.With(idem).Post("/payments/create-order", ph.CreateOrder)
			r.With(middleware.DevOrRole(isDev, auth.RoleAdmin), idem).Post("/payments/confirm", ph.Confirm)
			r.Get("/payments/{order_id}", ph.Get)
			r.With(idem).Post("/unlock/with-points", uh.WithPoints)
		})
	})

	return r
}
