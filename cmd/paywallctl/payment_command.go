package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/paywall-backend/internal/models"
)

func paymentRows(ps []models.Payment) [][]string {
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		paid := "-"
		if p.PaidAt != nil {
			paid = p.PaidAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			p.OrderID,
			p.UserID,
			p.WorkID + "/" + p.EpisodeID,
			strconv.FormatInt(p.Amount, 10) + " " + p.Currency,
			strconv.FormatInt(p.Points, 10),
			string(p.Status),
			paid,
		})
	}
	return rows
}

var paymentHeaders = []string{"Order", "User", "Episode", "Amount", "Points", "Status", "Paid at"}
var paymentAligns = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}

func newPaymentCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Inspect payment records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <order_id>",
		Short: "Show one payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.repos(cmd.Context())
			if err != nil {
				return err
			}
			p, err := r.Payments.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("payment %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(paymentHeaders, paymentRows([]models.Payment{p}), paymentAligns))
			if len(p.RawPayload) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "payload: %s\n", p.RawPayload)
			}
			return nil
		},
	})

	var limit, offset int
	list := &cobra.Command{
		Use:   "list <user_id>",
		Short: "List a user's payments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.repos(cmd.Context())
			if err != nil {
				return err
			}
			ps, err := r.Payments.ListByUser(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(paymentHeaders, paymentRows(ps), paymentAligns))
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	list.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.AddCommand(list)

	return cmd
}
