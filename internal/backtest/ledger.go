package backtest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kite-alert-backtest/internal/strategy"
)

// Ledger is the append-only trade record of one backtest run. It is owned by
// a single goroutine; the runner appends only after all fetches complete.
type Ledger struct {
	trades []strategy.Trade
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds trades in the order given.
func (l *Ledger) Append(trades ...strategy.Trade) {
	l.trades = append(l.trades, trades...)
}

// Trades returns a copy of the ledger contents.
func (l *Ledger) Trades() []strategy.Trade {
	out := make([]strategy.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len is the number of alerts recorded, executed or not.
func (l *Ledger) Len() int {
	return len(l.trades)
}

// Stats recomputes Statistics from the ledger.
func (l *Ledger) Stats() Statistics {
	return ComputeStats(l.trades)
}

const rule = "=================================================="

// SummaryText renders the run summary. Percentages are rounded to two
// decimals here and nowhere else.
func (l *Ledger) SummaryText() string {
	s := l.Stats()

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("BACKTEST SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total Alerts: %d\n", s.TotalAlerts)
	fmt.Fprintf(&b, "Executed Trades: %d\n", s.TotalTrades)
	if s.OpenTrades > 0 {
		fmt.Fprintf(&b, "Open Trades: %d\n", s.OpenTrades)
	}
	fmt.Fprintf(&b, "Winning Trades: %d\n", s.WinningTrades)
	fmt.Fprintf(&b, "Losing Trades: %d\n", s.LosingTrades)
	fmt.Fprintf(&b, "Win Rate: %s%%\n", fixed2(s.WinRate))
	fmt.Fprintf(&b, "Average Profit: %s%%\n", fixed2(s.AvgProfit))
	fmt.Fprintf(&b, "Average Loss: %s%%\n", fixed2(s.AvgLoss))
	fmt.Fprintf(&b, "Total P&L: %s%%\n", fixed2(s.TotalPnL))
	b.WriteString(rule + "\n")
	return b.String()
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
