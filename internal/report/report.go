package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"kite-alert-backtest/internal/strategy"
)

const TotalLabel = "TOTAL"

// Row aggregates the trades of one symbol. Wins, losses and P&L count
// closed trades only.
type Row struct {
	Symbol   string
	Alerts   int
	Executed int
	Open     int
	Wins     int
	Losses   int
	TotalPnL float64
}

// WinRate is wins as a percentage of closed trades.
func (r Row) WinRate() float64 {
	closed := r.Executed - r.Open
	if closed <= 0 {
		return 0
	}
	return float64(r.Wins) / float64(closed) * 100
}

// SymbolBreakdown groups trades by symbol, sorted by symbol, followed by a
// TOTAL row.
func SymbolBreakdown(trades []strategy.Trade) []Row {
	aggs := map[string]*Row{}
	for _, t := range trades {
		r := aggs[t.Symbol]
		if r == nil {
			r = &Row{Symbol: t.Symbol}
			aggs[t.Symbol] = r
		}
		r.Alerts++
		switch t.Status {
		case strategy.StatusOpen:
			r.Executed++
			r.Open++
		case strategy.StatusClosed:
			r.Executed++
			r.TotalPnL += t.PnLPercent
			if t.PnLPercent > 0 {
				r.Wins++
			}
			if t.PnLPercent < 0 {
				r.Losses++
			}
		}
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys)+1)
	total := Row{Symbol: TotalLabel}
	for _, k := range keys {
		r := *aggs[k]
		rows = append(rows, r)
		total.Alerts += r.Alerts
		total.Executed += r.Executed
		total.Open += r.Open
		total.Wins += r.Wins
		total.Losses += r.Losses
		total.TotalPnL += r.TotalPnL
	}
	return append(rows, total)
}

func Filename(now time.Time) string {
	return "symbol_breakdown_" + now.UTC().Format("2006-01-02T15-04-05") + ".csv"
}

// WriteCSV writes rows to dir and returns the file path.
func WriteCSV(dir string, rows []Row, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(dir, Filename(now))
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"symbol", "alerts", "executed", "open", "wins", "losses", "win_rate_pct", "total_pnl_pct"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, r := range rows {
		rec := []string{
			r.Symbol,
			strconv.Itoa(r.Alerts),
			strconv.Itoa(r.Executed),
			strconv.Itoa(r.Open),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			decimal.NewFromFloat(r.WinRate()).StringFixed(2),
			decimal.NewFromFloat(r.TotalPnL).StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, out.Close()
}
