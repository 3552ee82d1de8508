package ta

import (
	"math"

	"kite-alert-backtest/internal/types"
)

// SMA is the arithmetic mean of the n values immediately before end
// (vals[end-n .. end-1]); the value at end itself is excluded.
// Returns NaN when the window does not fit.
func SMA(vals []float64, end, n int) float64 {
	if n <= 0 || end > len(vals) || end-n < 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := end - n; i < end; i++ {
		sum += vals[i]
	}
	return sum / float64(n)
}

// VolumeSMA is SMA over the series volume column.
func VolumeSMA(s types.Series, end, n int) float64 {
	if n <= 0 || end > len(s) || end-n < 0 {
		return math.NaN()
	}
	vols := make([]float64, n)
	for i := range vols {
		vols[i] = s[end-n+i].Vol
	}
	return SMA(vols, n, n)
}

// PercentChange returns (to-from)/from*100.
func PercentChange(from, to float64) float64 {
	return (to - from) / from * 100
}
