package tradelog

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"kite-alert-backtest/internal/strategy"
	"kite-alert-backtest/internal/types"
)

// NotApplicable fills columns that do not apply to a trade's status.
const NotApplicable = "N/A"

const filePrefix = "backtest_results_"

// Row is one exported trade. Column titles are part of the file format.
type Row struct {
	Symbol      string `csv:"Symbol"`
	AlertDate   string `csv:"Alert Date (D0)"`
	Day0Close   string `csv:"D0 Close"`
	PriceChange string `csv:"Price Change %"`
	VolumeRatio string `csv:"Volume Ratio"`
	EntryDay    string `csv:"Entry Day"`
	EntryDate   string `csv:"Entry Date"`
	EntryPrice  string `csv:"Entry Price"`
	StopLoss    string `csv:"Stop Loss"`
	ExitDate    string `csv:"Exit Date"`
	ExitPrice   string `csv:"Exit Price"`
	ExitReason  string `csv:"Exit Reason"`
	PnLPercent  string `csv:"P&L %"`
}

// RowFromTrade renders a trade. Numbers are rounded to two decimals.
func RowFromTrade(t strategy.Trade) Row {
	r := Row{
		Symbol:      t.Symbol,
		AlertDate:   t.Alert.Date.Format(types.DateLayout),
		Day0Close:   Fixed2(t.Alert.Close),
		PriceChange: Fixed2(t.Alert.PriceChangePercent),
		VolumeRatio: Fixed2(t.Alert.VolumeRatio),
		EntryDay:    NotApplicable,
		EntryDate:   NotApplicable,
		EntryPrice:  NotApplicable,
		StopLoss:    Fixed2(t.StopLoss),
		ExitDate:    NotApplicable,
		ExitPrice:   NotApplicable,
		ExitReason:  t.ExitReason,
		PnLPercent:  Fixed2(0),
	}

	if !t.Executed() {
		return r
	}

	r.EntryDay = strconv.Itoa(t.EntryDay)
	r.EntryDate = t.EntryDate.Format(types.DateLayout)
	r.EntryPrice = Fixed2(t.EntryPrice)

	if t.Status == strategy.StatusOpen {
		r.PnLPercent = NotApplicable
		return r
	}

	r.ExitDate = t.ExitDate.Format(types.DateLayout)
	r.ExitPrice = Fixed2(t.ExitPrice)
	r.PnLPercent = Fixed2(t.PnLPercent)
	return r
}

func Fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Filename is the results file name for a run started at now, e.g.
// backtest_results_2024-09-28T10-15-30.csv.
func Filename(now time.Time) string {
	return filePrefix + now.UTC().Format("2006-01-02T15-04-05") + ".csv"
}

// Write encodes trades as CSV with a header row.
func Write(w io.Writer, trades []strategy.Trade) error {
	rows := make([]*Row, 0, len(trades))
	for _, t := range trades {
		r := RowFromTrade(t)
		rows = append(rows, &r)
	}
	return gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(csv.NewWriter(w)))
}

// WriteCSV writes trades to dir/backtest_results_<timestamp>.csv and returns
// the path.
func WriteCSV(dir string, trades []strategy.Trade, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, Filename(now))
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Write(f, trades); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, f.Close()
}

// CompressOlder gzips result files in dir last modified more than
// retentionDays before now and removes the originals. It returns the number
// of files compressed.
func CompressOlder(dir string, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() || !isResultFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		p := filepath.Join(dir, e.Name())
		gz := p + ".gz"
		// an earlier run already produced the archive
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			continue
		}
		if err := gzipFile(p, gz); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func isResultFile(name string) bool {
	if filepath.Ext(name) != ".csv" {
		return false
	}
	return strings.HasPrefix(name, filePrefix) || strings.HasPrefix(name, "symbol_breakdown_")
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return os.Remove(src)
}
