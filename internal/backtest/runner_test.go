package backtest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kite-alert-backtest/internal/strategy"
	"kite-alert-backtest/internal/types"
)

var errUnknown = errors.New("unknown symbol")

type fakeDirectory map[string]types.Instrument

func (d fakeDirectory) Lookup(symbol string) (types.Instrument, error) {
	inst, ok := d[symbol]
	if !ok {
		return types.Instrument{}, fmt.Errorf("%s: %w", symbol, errUnknown)
	}
	return inst, nil
}

type fakeSource struct {
	candles map[int][]types.RawCandle
	errs    map[int]error
}

func (f *fakeSource) DailyCandles(ctx context.Context, inst types.Instrument, from, to time.Time) ([]types.RawCandle, error) {
	if err := f.errs[inst.Token]; err != nil {
		return nil, err
	}
	return f.candles[inst.Token], nil
}

// winningSeries has one alert at index 25 that fills on day 1 and closes
// higher the next day.
func winningSeries() []types.RawCandle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.RawCandle, 40)
	for i := range out {
		o, h, l, c, v := 100.0, 100.0, 100.0, 100.0, 1000.0
		switch i {
		case 25:
			h, c, v = 107, 107, 2500
		case 26:
			h, l, c = 112, 106, 111
		case 27:
			h, l, c = 116, 110, 115
		}
		out[i] = types.RawCandle{Date: start.AddDate(0, 0, i), Open: o, High: h, Low: l, Close: c, Volume: v}
	}
	return out
}

func TestRunner_Run(t *testing.T) {
	dir := fakeDirectory{
		"TCS":   {Token: 1, Tradingsymbol: "TCS"},
		"INFY":  {Token: 2, Tradingsymbol: "INFY"},
		"WIPRO": {Token: 3, Tradingsymbol: "WIPRO"},
		"HDFC":  {Token: 4, Tradingsymbol: "HDFC"},
	}
	boom := errors.New("upstream down")
	src := &fakeSource{
		candles: map[int][]types.RawCandle{1: winningSeries(), 2: winningSeries()},
		errs:    map[int]error{3: boom},
	}

	r := NewRunner(src, dir, strategy.DefaultConfig(), 2)
	res, err := r.Run(context.Background(), []string{"TCS", "MISSING", "WIPRO", "INFY", "HDFC"}, time.Time{}, time.Time{})
	require.NoError(t, err)

	trades := res.Ledger.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, "TCS", trades[0].Symbol)
	assert.Equal(t, "INFY", trades[1].Symbol)
	assert.Equal(t, strategy.StatusClosed, trades[0].Status)
	assert.Equal(t, strategy.ExitReasonNextClose, trades[0].ExitReason)

	require.Len(t, res.Skipped, 3)
	assert.Equal(t, "MISSING", res.Skipped[0].Symbol)
	assert.ErrorIs(t, res.Skipped[0].Err, errUnknown)
	assert.Equal(t, "WIPRO", res.Skipped[1].Symbol)
	assert.ErrorIs(t, res.Skipped[1].Err, boom)
	assert.Equal(t, "HDFC", res.Skipped[2].Symbol)
	assert.ErrorIs(t, res.Skipped[2].Err, ErrNoData)

	stats := res.Ledger.Stats()
	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
}

func TestRunner_InvalidConfig(t *testing.T) {
	cfg := strategy.DefaultConfig()
	cfg.MaxEntryDays = 0
	_, err := NewRunner(&fakeSource{}, fakeDirectory{}, cfg, 1).Run(context.Background(), []string{"TCS"}, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, strategy.ErrInvalidConfig)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := fakeDirectory{"TCS": {Token: 1, Tradingsymbol: "TCS"}}
	src := &fakeSource{errs: map[int]error{1: context.Canceled}}
	_, err := NewRunner(src, dir, strategy.DefaultConfig(), 1).Run(ctx, []string{"TCS"}, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunner_DefaultConcurrency(t *testing.T) {
	r := NewRunner(&fakeSource{}, fakeDirectory{}, strategy.DefaultConfig(), 0)
	assert.Equal(t, 2, r.concurrency)
}
