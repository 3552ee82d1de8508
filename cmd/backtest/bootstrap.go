package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kite-alert-backtest/internal/logger"
	"kite-alert-backtest/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "backtest",
		Short:         "Backtest Day 0 price/volume alerts on Kite daily candles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeSystem()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = logger.Shutdown(ctx)
		},
	}

	root.PersistentFlags().String("config", "", "path to config.yaml (defaults and environment only when empty)")

	root.AddCommand(newRunCmd(), newInstrumentsCmd(), newTokenCmd())
	return root
}

// initializeSystem loads .env and sets up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads the file named by --config over the defaults.
func loadConfig(cmd *cobra.Command) (*store.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(cmd.Context(), "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}
