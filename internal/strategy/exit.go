package strategy

import (
	"fmt"
	"math"
	"time"

	"kite-alert-backtest/internal/ta"
	"kite-alert-backtest/internal/types"
)

const (
	ExitReasonStopLoss  = "Stop Loss Hit"
	ExitReasonNextClose = "Next Day Close"
	ExitReasonOpen      = "Open (no next day)"
)

// Exit resolves an executed trade on the day after execution.
type Exit struct {
	Date       time.Time
	Price      float64
	Reason     string
	PnLPercent float64
}

// ComputeStopLoss returns max(low of the day before execution,
// fill * (1 - StopLossPercent/100)). The look-back day is relative to the
// execution day, not the alert day.
func ComputeStopLoss(alert Alert, exec Execution, series types.Series, cfg Config) (float64, error) {
	if !exec.Executed {
		return 0, ErrNotExecuted
	}

	prev := alert.Index + exec.Day - 1
	if prev < 0 || prev >= len(series) {
		return 0, fmt.Errorf("%w: previous day %d of %d candles", ErrIndexOutOfRange, prev, len(series))
	}

	pctStop := exec.Price * (1 - cfg.StopLossPercent/100)
	return math.Max(series[prev].Low, pctStop), nil
}

// ResolveExit looks only at the day after executionIndex. If the series ends
// first the trade stays unresolved and ok is false.
func ResolveExit(exec Execution, stopLoss float64, series types.Series, executionIndex int) (Exit, bool) {
	next := executionIndex + 1
	if next < 0 || next >= len(series) {
		return Exit{}, false
	}
	day := series[next]

	if day.Low <= stopLoss {
		return Exit{
			Date:       day.Date,
			Price:      stopLoss,
			Reason:     ExitReasonStopLoss,
			PnLPercent: ta.PercentChange(exec.Price, stopLoss),
		}, true
	}

	return Exit{
		Date:       day.Date,
		Price:      day.Close,
		Reason:     ExitReasonNextClose,
		PnLPercent: ta.PercentChange(exec.Price, day.Close),
	}, true
}
