package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/paywall-backend/internal/db"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.repos(cmd.Context()); err != nil {
				return err
			}
			if err := db.RunMigrations(cmd.Context(), ctx.pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return nil
		},
	}
}
