package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/paywall-backend/internal/models"
)

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Manage per-episode unlock configuration",
	}

	var total, free int
	var price int64
	set := &cobra.Command{
		Use:   "set <work_id> <episode_id>",
		Short: "Create or update an episode's part count, free tier and price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.repos(cmd.Context())
			if err != nil {
				return err
			}
			e := models.Episode{WorkID: args[0], EpisodeID: args[1], TotalParts: total, FreeParts: free, PointsPerPart: price}
			if err := ctx.catalog(r).SetEpisode(cmd.Context(), e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "episode %s/%s saved\n", e.WorkID, e.EpisodeID)
			return nil
		},
	}
	set.Flags().IntVar(&total, "total", 30, "Number of parts")
	set.Flags().IntVar(&free, "free", 8, "Free parts")
	set.Flags().Int64Var(&price, "price", 0, "Points per part (0 uses POINTS_PER_PART)")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "list <work_id>",
		Short: "List configured episodes of a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.repos(cmd.Context())
			if err != nil {
				return err
			}
			eps, err := ctx.catalog(r).ListEpisodes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(eps))
			for _, e := range eps {
				price := "default"
				if e.PointsPerPart > 0 {
					price = strconv.FormatInt(e.PointsPerPart, 10)
				}
				rows = append(rows, []string{e.EpisodeID, strconv.Itoa(e.TotalParts), strconv.Itoa(e.FreeBoundary()), price})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Episode", "Parts", "Free", "Price"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	})

	return cmd
}
