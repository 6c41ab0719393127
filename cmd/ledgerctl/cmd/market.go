package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tradeJournal/internal/bootstrap"
)

var errMarketDisabled = fmt.Errorf("market data is disabled (set MARKET_DATA_ENABLED=true)")

func newPricesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prices ID...",
		Short: "Look up current prices for coin ids such as btc or eth",
		Args:  cobra.MinimumNArgs(1),
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			if a.Market == nil {
				return errMarketDisabled
			}
			quotes, err := a.Market.Lookup(ctx, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), quotes)
		}),
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Close open trades whose take-profit or stop-loss has been crossed",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			if a.Watcher == nil {
				return errMarketDisabled
			}
			if once {
				closed, err := a.Watcher.CheckOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "closed %d trades\n", len(closed))
				return nil
			}
			return a.Watcher.Run(ctx, a.Config.TriggerPollInterval)
		}),
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single check and exit")
	return cmd
}
