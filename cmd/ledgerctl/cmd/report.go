package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tradeJournal/internal/bootstrap"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print journal statistics and total volume",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			stats := a.Journal.Statistics(ctx)
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"statistics":   stats,
				"total_volume": a.Journal.TotalVolume(ctx),
			})
		}),
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print net PnL per day, newest first",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			history := a.Journal.DailyHistory(ctx)
			if len(history) == 0 {
				fmt.Fprintln(out, "no closed trades")
				return nil
			}
			for _, d := range history {
				fmt.Fprintf(out, "%s\t%.2f\n", d.Date, d.NetPNL)
			}
			return nil
		}),
	}
}
