package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tradeJournal/config"
	"tradeJournal/internal/bootstrap"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	dbPath string
}

// NewRootCmd builds the ledgerctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Personal crypto trade journal",
		Long: `ledgerctl runs the trade journal API and offers operator commands for
statistics, balances, volume reconciliation, CSV export and price lookups.
Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")

	root.AddCommand(
		newServeCmd(opts),
		newStatsCmd(opts),
		newHistoryCmd(opts),
		newBalancesCmd(opts),
		newDepositCmd(opts),
		newWithdrawCmd(opts),
		newReconcileCmd(opts),
		newExportCmd(opts),
		newPricesCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// runWithApp loads configuration, wires the journal and runs fn with it.
func runWithApp(opts *rootOptions, fn func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if opts.dbPath != "" {
			cfg.DBPath = opts.dbPath
		}
		a, err := bootstrap.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, a, cmd, args)
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
