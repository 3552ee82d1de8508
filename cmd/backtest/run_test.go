package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kite-alert-backtest/internal/backtest"
	"kite-alert-backtest/internal/store"
	"kite-alert-backtest/internal/strategy"
)

func TestRunFlagsApply(t *testing.T) {
	cfg := store.Default()
	f := runFlags{symbols: "infy,tcs", from: "2023-01-01", to: "2023-12-31", out: "x", concurrency: 3}
	require.NoError(t, f.apply(&cfg))

	assert.Equal(t, []string{"INFY", "TCS"}, cfg.Symbols)
	assert.Equal(t, "2023-01-01", cfg.StartDate)
	assert.Equal(t, "x", cfg.OutputDir)
	assert.Equal(t, 3, cfg.Concurrency)

	bad := runFlags{from: "2024-12-01", to: "2024-01-01"}
	assert.Error(t, bad.apply(&cfg))
}

func TestExportResults(t *testing.T) {
	cfg := store.Default()
	cfg.OutputDir = t.TempDir()

	ledger := backtest.NewLedger()
	ledger.Append(strategy.Trade{Symbol: "TCS", Status: strategy.StatusNotExecuted, ExitReason: "Entry price not reached in 4 days"})

	now := time.Date(2024, 9, 28, 10, 0, 0, 0, time.UTC)
	require.NoError(t, exportResults(context.Background(), &cfg, ledger, now))

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"backtest_results_2024-09-28T10-00-00.csv",
		"symbol_breakdown_2024-09-28T10-00-00.csv",
	}, names)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, names[0]))
}
