package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"tradeJournal/internal/bootstrap"
)

func newBalancesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Print all balances",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			balances, err := a.Journal.Balances(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), balances)
		}),
	}
}

func newDepositCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit SYMBOL AMOUNT",
		Short: "Add AMOUNT to the SYMBOL balance",
		Args:  cobra.ExactArgs(2),
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			balances, err := a.Journal.Deposit(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), balances)
		}),
	}
}

func newWithdrawCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw SYMBOL AMOUNT",
		Short: "Subtract AMOUNT from the SYMBOL balance",
		Args:  cobra.ExactArgs(2),
		RunE: runWithApp(opts, func(ctx context.Context, a *bootstrap.App, cmd *cobra.Command, args []string) error {
			balances, err := a.Journal.Withdraw(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), balances)
		}),
	}
}
