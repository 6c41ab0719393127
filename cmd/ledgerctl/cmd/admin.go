package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tradeJournal/internal/bootstrap"
	"tradeJournal/internal/utils"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-volume",
		Short: "Recompute the total volume counter from stored trade contributions",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			before, after, err := a.Journal.ReconcileVolume(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total_volume: %.4f -> %.4f\n", before, after)
			return nil
		}),
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every trade to a CSV file",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			trades, err := a.Journal.ListTrades(ctx)
			if err != nil {
				return err
			}
			if err := utils.WriteTradesToCSV(trades, out); err != nil {
				return fmt.Errorf("failed to export trades: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d trades to %s\n", len(trades), out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&out, "out", "trades.csv", "output CSV file")
	return cmd
}
