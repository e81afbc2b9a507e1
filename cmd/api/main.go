package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/api"
	"github.com/baharkarakas/paywall-backend/internal/auth"
	"github.com/baharkarakas/paywall-backend/internal/config"
	"github.com/baharkarakas/paywall-backend/internal/db"
	"github.com/baharkarakas/paywall-backend/internal/events"
	"github.com/baharkarakas/paywall-backend/internal/logger"
	"github.com/baharkarakas/paywall-backend/internal/metrics"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
	"github.com/baharkarakas/paywall-backend/internal/repository/postgres"
	"github.com/baharkarakas/paywall-backend/internal/repository/redis"
	"github.com/baharkarakas/paywall-backend/internal/services"
	"github.com/baharkarakas/paywall-backend/internal/webhook"
	"github.com/baharkarakas/paywall-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, dbPool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(dbPool)

	// optional: Idempotency-Key cache
	var idem repo.IdempotencyStore
	if cfg.RedisURL != "" {
		rc, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis connect", "err", err)
			os.Exit(1)
		}
		defer rc.Close()
		idem = redis.NewIdempotencyRepo(rc)
	}

	// optional: domain events
	var pub events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		rp, err := events.DialRabbitMQ(cfg.AMQPURL, events.Exchange)
		if err != nil {
			log.Error("rabbitmq connect", "err", err)
			os.Exit(1)
		}
		defer rp.Close()
		pub = rp
	}
	// stopped before the publisher closes so queued events still go out
	wp := worker.NewPool(cfg.WorkerCount)
	defer wp.Stop()
	emitter := events.NewDispatcher(pub, wp)

	var verifier *webhook.Verifier
	if cfg.WebhookSecret != "" {
		verifier, err = webhook.NewVerifier(cfg.WebhookSecret, cfg.WebhookTolerance)
		if err != nil {
			log.Error("webhook secret", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("PORTONE_WEBHOOK_SECRET not set, webhook deliveries will be refused")
	}

	catalog := services.NewCatalogService(repos.Catalog, services.CatalogDefaults{
		TotalParts:    cfg.DefaultTotalParts,
		FreeParts:     cfg.FreeParts,
		PointsPerPart: cfg.PointsPerPart,
	})
	walletSvc := services.NewWalletService(repos.Wallets, repos.Ledger, repos.Tx)
	orderSvc := services.NewOrderService(repos.Payments, catalog, cfg.PaymentProvider, cfg.PaymentCurrency)
	entSvc := services.NewEntitlementService(catalog, repos.Wallets, repos.Entitlements)
	settleSvc := services.NewSettlementService(services.SettlementDeps{
		Verifier: verifier,
		Payments: repos.Payments,
		Wallets:  repos.Wallets,
		Ledger:   repos.Ledger,
		Audit:    repos.AuditLogs,
		Tx:       repos.Tx,
		Emitter:  emitter,
	})
	unlockSvc := services.NewUnlockService(services.UnlockDeps{
		Catalog:      catalog,
		Wallets:      repos.Wallets,
		Entitlements: repos.Entitlements,
		Ledger:       repos.Ledger,
		Audit:        repos.AuditLogs,
		Tx:           repos.Tx,
		Emitter:      emitter,
	})

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:          cfg,
		Log:          log,
		Tokens:       auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		Idempotency:  idem,
		Entitlements: entSvc,
		Orders:       orderSvc,
		Wallet:       walletSvc,
		Settlement:   settleSvc,
		Unlock:       unlockSvc,
		Health:       func(r *http.Request) error { return dbPool.Ping(r.Context()) },
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env,
			"redis", idem != nil, "amqp", cfg.AMQPURL != "", "webhook", verifier != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
