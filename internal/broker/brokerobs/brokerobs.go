package brokerobs

import (
	"context"
	"time"

	"kite-alert-backtest/internal/interfaces"
	"kite-alert-backtest/internal/logger"
	"kite-alert-backtest/internal/trace"
	"kite-alert-backtest/internal/types"
)

// observableSource wraps a HistoricalSource with observability (logging & tracing)
type observableSource struct {
	source interfaces.HistoricalSource
}

// Compile-time interface check
var _ interfaces.HistoricalSource = (*observableSource)(nil)

// Wrap wraps a historical source with observability middleware
func Wrap(source interfaces.HistoricalSource) interfaces.HistoricalSource {
	return &observableSource{
		source: source,
	}
}

// DailyCandles fetches candles with observability
func (o *observableSource) DailyCandles(ctx context.Context, inst types.Instrument, from, to time.Time) ([]types.RawCandle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.DailyCandles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching daily candles",
		"symbol", inst.Tradingsymbol,
		"token", inst.Token,
		"from", from.Format(types.DateLayout),
		"to", to.Format(types.DateLayout),
	)

	start := time.Now()
	candles, err := o.source.DailyCandles(ctx, inst, from, to)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err,
			"symbol", inst.Tradingsymbol,
			"token", inst.Token,
		)
		return nil, err
	}

	if len(candles) == 0 {
		logger.WarnSkip(ctx, 1, "No candles returned",
			"symbol", inst.Tradingsymbol,
			"token", inst.Token,
		)
		return candles, nil
	}

	logger.InfoSkip(ctx, 1, "Candles fetched successfully",
		"symbol", inst.Tradingsymbol,
		"count", len(candles),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return candles, nil
}
