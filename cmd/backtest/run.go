package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kite-alert-backtest/internal/backtest"
	"kite-alert-backtest/internal/broker/brokerobs"
	"kite-alert-backtest/internal/broker/zerodha"
	"kite-alert-backtest/internal/logger"
	"kite-alert-backtest/internal/report"
	"kite-alert-backtest/internal/store"
	"kite-alert-backtest/internal/tradelog"
)

type runFlags struct {
	symbols     string
	from, to    string
	out         string
	concurrency int
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan symbols for Day 0 alerts and simulate the staged entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := f.apply(cfg); err != nil {
				return err
			}
			return runBacktest(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&f.symbols, "symbols", "", "comma separated symbols, overrides config")
	cmd.Flags().StringVar(&f.from, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "end date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.out, "out", "", "results directory")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "symbols fetched in parallel")
	return cmd
}

func (f runFlags) apply(cfg *store.Config) error {
	if f.symbols != "" {
		cfg.Symbols = store.SplitSymbols(f.symbols)
	}
	if f.from != "" {
		cfg.StartDate = f.from
	}
	if f.to != "" {
		cfg.EndDate = f.to
	}
	if f.out != "" {
		cfg.OutputDir = f.out
	}
	if f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	return cfg.Validate()
}

func runBacktest(cmd *cobra.Command, cfg *store.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Kite.AccessToken == "" {
		return errors.New("KITE_ACCESS_TOKEN is not set; run `backtest token` first")
	}

	from, to, err := cfg.Range()
	if err != nil {
		return err
	}

	logger.Info(ctx, "Starting backtest",
		"from", cfg.StartDate,
		"to", cfg.EndDate,
		"symbols", cfg.Symbols,
	)

	directory := zerodha.NewDirectory(cfg.Kite.InstrumentsPath, cfg.Exchange, cfg.Kite.DelimiterRune())
	n, err := directory.Len()
	if err != nil {
		if errors.Is(err, zerodha.ErrInstrumentsMissing) {
			return fmt.Errorf("%w; run `backtest instruments download` first", err)
		}
		return err
	}
	logger.Info(ctx, "Instruments loaded", "exchange", cfg.Exchange, "count", n)

	source := brokerobs.Wrap(zerodha.NewHistoricalClient(zerodha.Params{
		APIKey:      cfg.Kite.APIKey,
		AccessToken: cfg.Kite.AccessToken,
		MinDelay:    cfg.Kite.MinDelay,
		RetryWait:   cfg.Kite.RetryWait,
		MaxRetries:  cfg.Kite.MaxRetries,
	}))

	runner := backtest.NewRunner(source, directory, cfg.Strategy, cfg.Concurrency)
	res, err := runner.Run(ctx, cfg.Symbols, from, to)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, res.Ledger.SummaryText())
	for _, s := range res.Skipped {
		fmt.Fprintf(out, "Skipped %s: %v\n", s.Symbol, s.Err)
	}

	return exportResults(ctx, cfg, res.Ledger, time.Now())
}

func exportResults(ctx context.Context, cfg *store.Config, ledger *backtest.Ledger, now time.Time) error {
	trades := ledger.Trades()

	resultsPath, err := tradelog.WriteCSV(cfg.OutputDir, trades, now)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to write results", err, "dir", cfg.OutputDir)
		return err
	}
	logger.Info(ctx, "Results saved", "path", resultsPath, "trades", len(trades))

	breakdownPath, err := report.WriteCSV(cfg.OutputDir, report.SymbolBreakdown(trades), now)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to write symbol breakdown", err, "dir", cfg.OutputDir)
		return err
	}
	logger.Info(ctx, "Symbol breakdown saved", "path", breakdownPath)

	if n, err := tradelog.CompressOlder(cfg.OutputDir, cfg.RetentionDays, now); err != nil {
		logger.Warn(ctx, "Failed to compress old results", "error", err)
	} else if n > 0 {
		logger.Info(ctx, "Compressed old results", "files", n)
	}
	return nil
}
