package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"kite-alert-backtest/internal/types"
)

func TestSMAExcludesEnd(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 100}
	assert.InDelta(t, 3.0, SMA(vals, 4, 3), 1e-12)
	assert.InDelta(t, 2.5, SMA(vals, 4, 4), 1e-12)
}

func TestSMAWindowDoesNotFit(t *testing.T) {
	vals := []float64{1, 2, 3}
	assert.True(t, math.IsNaN(SMA(vals, 2, 3)))
	assert.True(t, math.IsNaN(SMA(vals, 4, 1)))
	assert.True(t, math.IsNaN(SMA(vals, 3, 0)))
}

func TestVolumeSMA(t *testing.T) {
	s := types.Series{{Vol: 10}, {Vol: 20}, {Vol: 30}, {Vol: 1000}}
	assert.InDelta(t, 20.0, VolumeSMA(s, 3, 3), 1e-12)
	assert.InDelta(t, 25.0, VolumeSMA(s, 3, 2), 1e-12)
	assert.True(t, math.IsNaN(VolumeSMA(s, 2, 3)))
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 7.0, PercentChange(100, 107), 1e-9)
	assert.InDelta(t, -2.0, PercentChange(50, 49), 1e-9)
}
