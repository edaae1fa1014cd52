package cmd

import (
	"context"
	"fmt"

	"lv-tradesense/internal/app"

	"github.com/spf13/cobra"
)

var dailyResetCmd = &cobra.Command{
	Use:   "daily-reset",
	Short: "Start a new trading day for every active challenge",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Trading.DailyReset(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d challenges\n", n)
			return err
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-evaluate every active challenge at current prices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			evaluated, terminal, err := a.Trading.Sweep(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "evaluated %d challenges, %d reached a final status\n", evaluated, terminal)
			return err
		})
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <challenge-id>",
	Short: "Evaluate one challenge against its rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Trading.EvaluateRules(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Status, res.Reason)
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <challenge-id>",
	Short: "Check the trade journal hash chain of a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Trading.VerifyTrades(ctx, args[0])
			if err != nil {
				return fmt.Errorf("verify %s after %d trades: %w", args[0], n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d trades\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dailyResetCmd, sweepCmd, evaluateCmd, verifyCmd)
}
