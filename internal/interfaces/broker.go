package interfaces

import (
	"context"
	"time"

	"kite-alert-backtest/internal/types"
)

// HistoricalSource returns daily candles for an instrument, oldest first.
type HistoricalSource interface {
	DailyCandles(ctx context.Context, inst types.Instrument, from, to time.Time) ([]types.RawCandle, error)
}

// InstrumentDirectory resolves trading symbols to broker instruments.
type InstrumentDirectory interface {
	Lookup(symbol string) (types.Instrument, error)
}
