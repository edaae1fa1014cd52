package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"lv-tradesense/internal/app"
	"lv-tradesense/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "propctl",
	Short: "Operate prop-firm challenge accounts",
	Long: `propctl runs maintenance jobs against the challenge store used by the API.

It reads the same environment as the API server and requires DB_DSN.

Examples:
  propctl daily-reset
  propctl sweep
  propctl evaluate <challenge-id>
  propctl verify <challenge-id>
  propctl hash-password`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// withApp loads config, opens the store and runs fn. SIGINT cancels fn's context.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a, err := app.New(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
