package strategy

import (
	"time"

	"kite-alert-backtest/internal/types"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// flatSeries builds n identical candles at price 100 with volume 1000.
func flatSeries(n int) types.Series {
	s := make(types.Series, n)
	for i := range s {
		s[i] = types.Candle{
			Date:  day0.AddDate(0, 0, i),
			Open:  100,
			High:  100,
			Low:   100,
			Close: 100,
			Vol:   1000,
		}
	}
	return s
}

// spike turns candle i into a +pct% close on mult x the flat volume.
func spike(s types.Series, i int, closePrice, vol float64) {
	s[i].Close = closePrice
	s[i].High = closePrice
	s[i].Vol = vol
}
