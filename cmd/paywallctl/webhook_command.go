package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/baharkarakas/paywall-backend/internal/webhook"
)

func newWebhookCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook helpers",
	}

	var secret, id string
	sign := &cobra.Command{
		Use:   "sign [payload-file]",
		Short: "Print signature headers for a payload (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = ctx.cfg.WebhookSecret
			}
			if secret == "" {
				return errors.New("no secret: pass --secret or set PORTONE_WEBHOOK_SECRET")
			}

			var payload []byte
			var err error
			if len(args) == 1 {
				payload, err = os.ReadFile(args[0])
			} else {
				payload, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			if id == "" {
				id = "msg_" + uuid.NewString()
			}

			h, err := webhook.Sign(secret, id, time.Now(), payload)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(h))
			for k := range h {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, h.Get(k))
			}
			return nil
		},
	}
	sign.Flags().StringVar(&secret, "secret", "", "Webhook secret (defaults to PORTONE_WEBHOOK_SECRET)")
	sign.Flags().StringVar(&id, "id", "", "Webhook-Id value")
	cmd.AddCommand(sign)

	return cmd
}
