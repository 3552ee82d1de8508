package types

import "time"

// RawCandle is a daily bar as delivered by a historical data source.
// Date may be a time.Time or any textual timestamp; OHLCV fields may be
// numbers or numeric strings and are coerced during normalization.
type RawCandle struct {
	Date                           any
	Open, High, Low, Close, Volume any
}

// Candle is one normalized trading day. Date is the calendar day at
// midnight UTC in the target offset.
type Candle struct {
	Date                        time.Time
	Open, High, Low, Close, Vol float64
}

// DateString formats the candle's calendar day as YYYY-MM-DD.
func (c Candle) DateString() string {
	return c.Date.Format(DateLayout)
}

// Series is an ordered, strictly ascending sequence of candles.
type Series []Candle

const DateLayout = "2006-01-02"

// Instrument identifies a tradable equity in the broker's directory.
type Instrument struct {
	Token         int
	Tradingsymbol string
	Name          string
	Exchange      string
}
