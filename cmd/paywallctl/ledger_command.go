package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/baharkarakas/paywall-backend/internal/services"
)

func ledgerRows(entries []models.LedgerEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		sign := "+"
		if e.Kind == models.LedgerDebit {
			sign = "-"
		}
		rows = append(rows, []string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			string(e.Reason),
			e.Reference,
			sign + strconv.FormatInt(e.Points, 10),
			strconv.FormatInt(e.BalanceAfter, 10),
		})
	}
	return rows
}

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the point ledger",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list <user_id>",
		Short: "List a user's point movements, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.repos(cmd.Context())
			if err != nil {
				return err
			}
			svc := services.NewWalletService(r.Wallets, r.Ledger, r.Tx)
			entries, err := svc.History(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"When", "Reason", "Reference", "Points", "Balance"},
				ledgerRows(entries),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "Maximum rows")
	list.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.AddCommand(list)

	return cmd
}
