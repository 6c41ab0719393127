package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"tradeJournal/internal/bootstrap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `Start the REST API. When market data is enabled the take-profit/stop-loss watcher runs alongside it.`,
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.Config.HTTPAddr
			}
			return a.Serve(ctx, addr, !noWatch)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not run the trigger watcher")
	return cmd
}
