package strategy

import (
	"fmt"
	"time"

	"kite-alert-backtest/internal/types"
)

// TradeStatus is the terminal state of an alert.
type TradeStatus string

const (
	StatusNotExecuted TradeStatus = "NOT_EXECUTED"
	StatusClosed      TradeStatus = "CLOSED"
	StatusOpen        TradeStatus = "OPEN"
)

// Trade is the complete record produced for one alert. Entry and exit fields
// are zero unless the status says they apply.
type Trade struct {
	Symbol     string
	Alert      Alert
	Status     TradeStatus
	EntryDay   int
	EntryDate  time.Time
	EntryPrice float64
	StopLoss   float64
	ExitDate   time.Time
	ExitPrice  float64
	ExitReason string
	PnLPercent float64
}

// Executed reports whether the trade filled, whether or not it has exited.
func (t Trade) Executed() bool {
	return t.Status == StatusClosed || t.Status == StatusOpen
}

// Scan walks the series from the first index with enough volume history and
// simulates one Trade per alert. After an alert at i the next index evaluated
// is i+6; indices in between are never considered even if they would qualify.
func Scan(symbol string, series types.Series, cfg Config) ([]Trade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var trades []Trade
	for i := cfg.VolumeSMAPeriod; i < len(series); i++ {
		alert, ok := DetectAlert(series, i, cfg)
		if !ok {
			continue
		}

		trade, err := Simulate(symbol, alert, series, cfg)
		if err != nil {
			return nil, fmt.Errorf("simulate %s alert on %s: %w", symbol, alert.Date.Format(types.DateLayout), err)
		}
		trades = append(trades, trade)

		i += alertCooldown
	}

	return trades, nil
}

// Simulate runs entry, stop-loss and exit resolution for a single alert.
//
// State transitions:
//
//	Alerted -> NotExecuted
//	Alerted -> Executed -> StopLossHit | ClosedNextDay | Open
func Simulate(symbol string, alert Alert, series types.Series, cfg Config) (Trade, error) {
	trade := Trade{
		Symbol: symbol,
		Alert:  alert,
	}

	levels := BuildEntryLevels(alert, series, cfg)
	exec := ResolveExecution(levels, cfg)
	if !exec.Executed {
		trade.Status = StatusNotExecuted
		trade.StopLoss = alert.Close
		trade.ExitReason = exec.Reason
		return trade, nil
	}

	stop, err := ComputeStopLoss(alert, exec, series, cfg)
	if err != nil {
		return Trade{}, err
	}

	trade.EntryDay = exec.Day
	trade.EntryDate = exec.Date
	trade.EntryPrice = exec.Price
	trade.StopLoss = stop

	exit, ok := ResolveExit(exec, stop, series, exec.Index)
	if !ok {
		trade.Status = StatusOpen
		trade.ExitReason = ExitReasonOpen
		return trade, nil
	}

	trade.Status = StatusClosed
	trade.ExitDate = exit.Date
	trade.ExitPrice = exit.Price
	trade.ExitReason = exit.Reason
	trade.PnLPercent = exit.PnLPercent
	return trade, nil
}
