package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/baharkarakas/paywall-backend/internal/config"
	"github.com/baharkarakas/paywall-backend/internal/db"
	"github.com/baharkarakas/paywall-backend/internal/logger"
	"github.com/baharkarakas/paywall-backend/internal/repository/postgres"
	"github.com/baharkarakas/paywall-backend/internal/services"
)

// commandContext opens the database lazily so commands that never touch it
// (webhook sign) run without one.
type commandContext struct {
	dsn  *string
	cfg  config.Config
	pool *pgxpool.Pool
}

func (c *commandContext) repos(ctx context.Context) (postgres.Repositories, error) {
	if c.pool == nil {
		dsn := c.cfg.DatabaseURL
		if *c.dsn != "" {
			dsn = *c.dsn
		}
		pool, err := db.NewPool(ctx, dsn)
		if err != nil {
			return postgres.Repositories{}, err
		}
		c.pool = pool
	}
	return postgres.NewRepositories(c.pool), nil
}

func (c *commandContext) catalog(r postgres.Repositories) *services.CatalogService {
	return services.NewCatalogService(r.Catalog, services.CatalogDefaults{
		TotalParts:    c.cfg.DefaultTotalParts,
		FreeParts:     c.cfg.FreeParts,
		PointsPerPart: c.cfg.PointsPerPart,
	})
}

func (c *commandContext) close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

func newRootCommand() *cobra.Command {
	var dsnFlag string
	ctx := &commandContext{dsn: &dsnFlag, cfg: config.Load()}

	rootCmd := &cobra.Command{
		Use:           "paywallctl",
		Short:         "Operator tooling for the paywall backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := ctx.cfg.LogLevel
			if level == "" {
				level = "warn"
			}
			slog.SetDefault(logger.NewWithWriter(os.Stderr, ctx.cfg.Env, level))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "database-url", "", "Postgres DSN (defaults to DATABASE_URL)")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newWalletCommand(ctx))
	rootCmd.AddCommand(newPaymentCommand(ctx))
	rootCmd.AddCommand(newLedgerCommand(ctx))
	rootCmd.AddCommand(newEpisodeCommand(ctx))
	rootCmd.AddCommand(newWebhookCommand(ctx))

	return rootCmd
}
