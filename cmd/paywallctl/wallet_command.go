package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/paywall-backend/internal/services"
)

func newWalletCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Inspect or adjust point wallets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <user_id>",
		Short: "Show a user's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.repos(cmd.Context())
			if err != nil {
				return err
			}
			w, err := r.Wallets.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			updated := "-"
			if !w.UpdatedAt.IsZero() {
				updated = w.UpdatedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"User", "Points", "Updated"},
				[][]string{{w.UserID, strconv.FormatInt(w.Points, 10), updated}},
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	})

	var reference string
	credit := &cobra.Command{
		Use:   "credit <user_id> <points>",
		Short: "Grant points outside the payment flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("points: %w", err)
			}
			r, err := ctx.repos(cmd.Context())
			if err != nil {
				return err
			}
			svc := services.NewWalletService(r.Wallets, r.Ledger, r.Tx)
			balance, err := svc.ManualCredit(cmd.Context(), args[0], points, "cli:"+reference)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credited %d points, balance %d\n", points, balance)
			return nil
		},
	}
	credit.Flags().StringVar(&reference, "reference", "manual", "Ledger reference for the grant")
	cmd.AddCommand(credit)

	return cmd
}
