package strategy

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"kite-alert-backtest/internal/types"
)

// kiteTimestampLayout is the layout Kite uses for historical candle dates.
const kiteTimestampLayout = "2006-01-02T15:04:05-0700"

// Normalize converts raw candles into a Series. Each timestamp is shifted by
// offset and truncated to its calendar day; OHLCV fields are coerced to
// float64. Any unparseable field aborts the whole series with
// ErrMalformedCandle rather than silently becoming zero.
func Normalize(raw []types.RawCandle, offset time.Duration) (types.Series, error) {
	series := make(types.Series, 0, len(raw))

	for i, rc := range raw {
		day, err := calendarDay(rc.Date, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: candle %d date %v: %v", ErrMalformedCandle, i, rc.Date, err)
		}

		var vals [5]float64
		for j, f := range []struct {
			name string
			v    any
		}{
			{"open", rc.Open},
			{"high", rc.High},
			{"low", rc.Low},
			{"close", rc.Close},
			{"volume", rc.Volume},
		} {
			x, err := toNumber(f.v)
			if err != nil {
				return nil, fmt.Errorf("%w: candle %d (%s) field %s: %v", ErrMalformedCandle, i, day.Format(types.DateLayout), f.name, err)
			}
			vals[j] = x
		}
		for j, name := range [...]string{"open", "high", "low", "close"} {
			if vals[j] <= 0 {
				return nil, fmt.Errorf("%w: candle %d (%s) non-positive %s %v", ErrMalformedCandle, i, day.Format(types.DateLayout), name, vals[j])
			}
		}
		if vals[4] < 0 {
			return nil, fmt.Errorf("%w: candle %d (%s) negative volume %v", ErrMalformedCandle, i, day.Format(types.DateLayout), vals[4])
		}

		if n := len(series); n > 0 && !series[n-1].Date.Before(day) {
			return nil, fmt.Errorf("%w: %s follows %s", ErrUnorderedSeries,
				day.Format(types.DateLayout), series[n-1].Date.Format(types.DateLayout))
		}

		series = append(series, types.Candle{
			Date:  day,
			Open:  vals[0],
			High:  vals[1],
			Low:   vals[2],
			Close: vals[3],
			Vol:   vals[4],
		})
	}

	return series, nil
}

func calendarDay(v any, offset time.Duration) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	switch d := v.(type) {
	case time.Time:
		t = d
	case string:
		t, err = parseTimestamp(d)
	case nil:
		err = fmt.Errorf("missing timestamp")
	default:
		t, err = cast.ToTimeE(v)
	}
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("zero timestamp")
	}

	u := t.UTC().Add(offset)
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseTimestamp accepts the Kite layout and falls back to the formats cast
// understands. Strings without a zone are read as UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(kiteTimestampLayout, s); err == nil {
		return t, nil
	}
	return cast.ToTimeE(s)
}

func toNumber(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case bool:
		return 0, fmt.Errorf("boolean %v is not numeric", x)
	case string:
		v = strings.TrimSpace(x)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", v)
	}
	return f, nil
}
