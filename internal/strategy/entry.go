package strategy

import (
	"fmt"
	"time"

	"kite-alert-backtest/internal/types"
)

// EntryLevel is the limit price for one day after the alert together with
// what that day actually traded.
type EntryLevel struct {
	Day           int // 1-based, relative to the alert
	Index         int // position in the series
	Date          time.Time
	EntryPrice    float64
	ReferenceHigh float64 // alert close for day 1, previous level's high after that
	High          float64
	Low           float64
	Close         float64
}

// BuildEntryLevels folds over the days following the alert. Each level's
// target is a premium over the previous level's observed high (the alert
// close for day 1). The chain stops at MaxEntryDays or at the end of the
// series, whichever comes first.
func BuildEntryLevels(alert Alert, series types.Series, cfg Config) []EntryLevel {
	levels := make([]EntryLevel, 0, cfg.MaxEntryDays)
	reference := alert.Close
	premium := 1 + cfg.EntryPremiumPercent/100

	for day := 1; day <= cfg.MaxEntryDays; day++ {
		idx := alert.Index + day
		if idx >= len(series) {
			break
		}
		c := series[idx]
		levels = append(levels, EntryLevel{
			Day:           day,
			Index:         idx,
			Date:          c.Date,
			EntryPrice:    reference * premium,
			ReferenceHigh: reference,
			High:          c.High,
			Low:           c.Low,
			Close:         c.Close,
		})
		reference = c.High
	}

	return levels
}

// Execution is the outcome of scanning entry levels.
type Execution struct {
	Executed   bool
	Day        int
	Index      int
	Date       time.Time
	Price      float64
	ActualHigh float64
	Reason     string
}

// ResolveExecution fills at the first level whose high reaches its target.
// A non-positive target never fills.
// The fill price is the target itself (a resting limit order), never the
// observed high.
func ResolveExecution(levels []EntryLevel, cfg Config) Execution {
	for _, lvl := range levels {
		if lvl.EntryPrice > 0 && lvl.High >= lvl.EntryPrice {
			return Execution{
				Executed:   true,
				Day:        lvl.Day,
				Index:      lvl.Index,
				Date:       lvl.Date,
				Price:      lvl.EntryPrice,
				ActualHigh: lvl.High,
			}
		}
	}

	return Execution{
		Executed: false,
		Reason:   NotReachedReason(cfg.MaxEntryDays),
	}
}

// NotReachedReason is the exit reason recorded for alerts that never filled.
func NotReachedReason(days int) string {
	return fmt.Sprintf("Entry price not reached in %d days", days)
}
