package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"kite-alert-backtest/internal/interfaces"
	"kite-alert-backtest/internal/logger"
	"kite-alert-backtest/internal/strategy"
	"kite-alert-backtest/internal/types"
)

const defaultConcurrency = 2

// ErrNoData is recorded for symbols whose source returned no candles.
var ErrNoData = errors.New("no historical data")

// Skip records a symbol that was left out of the run.
type Skip struct {
	Symbol string
	Err    error
}

// Result is the outcome of one run.
type Result struct {
	Ledger  *Ledger
	Skipped []Skip
}

// Runner fetches, normalizes and scans every symbol of a run. Each symbol is
// scanned on its own series; results land in the ledger in symbol order.
type Runner struct {
	source      interfaces.HistoricalSource
	directory   interfaces.InstrumentDirectory
	cfg         strategy.Config
	concurrency int
}

func NewRunner(source interfaces.HistoricalSource, directory interfaces.InstrumentDirectory, cfg strategy.Config, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Runner{
		source:      source,
		directory:   directory,
		cfg:         cfg,
		concurrency: concurrency,
	}
}

type symbolResult struct {
	trades []strategy.Trade
	err    error
}

// Run backtests symbols over [from, to]. Per-symbol failures are logged and
// reported in Result.Skipped; only an invalid config or a cancelled context
// fails the run.
func (r *Runner) Run(ctx context.Context, symbols []string, from, to time.Time) (Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return Result{}, err
	}

	op := logger.StartOperation(ctx, "backtest.Run", "symbols", len(symbols))
	ctx = op.GetContext()

	results := make([]symbolResult, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, symbol := range symbols {
		g.Go(func() error {
			trades, err := r.runSymbol(gctx, symbol, from, to)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = symbolResult{trades: trades, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		op.EndWithError(err)
		return Result{}, err
	}

	res := Result{Ledger: NewLedger()}
	for i, symbol := range symbols {
		if err := results[i].err; err != nil {
			logger.Warn(ctx, "Skipping symbol", "symbol", symbol, "error", err)
			res.Skipped = append(res.Skipped, Skip{Symbol: symbol, Err: err})
			continue
		}
		for _, t := range results[i].trades {
			logTrade(ctx, t)
		}
		res.Ledger.Append(results[i].trades...)
	}

	op.End("alerts", res.Ledger.Len(), "skipped", len(res.Skipped))
	return res, nil
}

func (r *Runner) runSymbol(ctx context.Context, symbol string, from, to time.Time) ([]strategy.Trade, error) {
	inst, err := r.directory.Lookup(symbol)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Processing symbol", "symbol", symbol, "token", inst.Token)

	raw, err := r.source.DailyCandles(ctx, inst, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	series, err := strategy.Normalize(raw, r.cfg.DayOffset)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", symbol, err)
	}
	logger.Debug(ctx, "Candles normalized", "symbol", symbol, "count", len(series))

	return strategy.Scan(symbol, series, r.cfg)
}

func logTrade(ctx context.Context, t strategy.Trade) {
	logger.Alert(ctx, t.Symbol, t.Alert.Date.Format(types.DateLayout), t.Alert.PriceChangePercent, t.Alert.VolumeRatio)
	logger.Trade(ctx, t.Symbol, string(t.Status), t.EntryPrice, t.StopLoss, t.ExitReason,
		"entry_day", t.EntryDay,
		"pnl_pct", t.PnLPercent,
	)
}
