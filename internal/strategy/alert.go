package strategy

import (
	"math"
	"time"

	"kite-alert-backtest/internal/ta"
	"kite-alert-backtest/internal/types"
)

// Alert is a Day 0 signal at Index: a price spike on elevated volume.
type Alert struct {
	Index              int
	Date               time.Time
	Close              float64
	PriceChangePercent float64
	Volume             float64
	VolumeSMA          float64
	VolumeRatio        float64
}

// DetectAlert evaluates the Day 0 conditions at index i.
//
// The trailing volume SMA covers exactly cfg.VolumeSMAPeriod candles before i.
// An index without that much history is a defined negative result, as is a
// zero previous close or a zero volume SMA (no ratio can be formed, so the
// window is treated as disqualifying).
//
// Both thresholds are inclusive:
//
//	priceChange >= PriceSpikePercent && volume >= volumeSMA*VolumeMultiplier
func DetectAlert(series types.Series, i int, cfg Config) (Alert, bool) {
	if i < cfg.VolumeSMAPeriod || i < 1 || i >= len(series) {
		return Alert{}, false
	}

	cur, prev := series[i], series[i-1]
	if prev.Close == 0 {
		return Alert{}, false
	}
	priceChange := ta.PercentChange(prev.Close, cur.Close)

	volumeSMA := ta.VolumeSMA(series, i, cfg.VolumeSMAPeriod)
	if volumeSMA == 0 || math.IsNaN(volumeSMA) {
		return Alert{}, false
	}

	if priceChange < cfg.PriceSpikePercent || cur.Vol < volumeSMA*cfg.VolumeMultiplier {
		return Alert{}, false
	}

	return Alert{
		Index:              i,
		Date:               cur.Date,
		Close:              cur.Close,
		PriceChangePercent: priceChange,
		Volume:             cur.Vol,
		VolumeSMA:          volumeSMA,
		VolumeRatio:        cur.Vol / volumeSMA,
	}, true
}
