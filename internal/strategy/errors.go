package strategy

import "errors"

var (
	// ErrMalformedCandle is returned when an OHLCV field or timestamp cannot be
	// coerced. Normalization of the whole series is aborted.
	ErrMalformedCandle = errors.New("malformed candle")

	// ErrUnorderedSeries is returned when normalized dates are not strictly ascending.
	ErrUnorderedSeries = errors.New("series dates not strictly ascending")

	// ErrIndexOutOfRange is returned when a look-back reads outside the series.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotExecuted is returned when a stop-loss is requested for an execution that never filled.
	ErrNotExecuted = errors.New("entry not executed")

	// ErrInvalidConfig wraps validation failures of Config.
	ErrInvalidConfig = errors.New("invalid strategy config")
)
