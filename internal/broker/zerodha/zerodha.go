package zerodha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"golang.org/x/time/rate"

	"kite-alert-backtest/internal/interfaces"
	"kite-alert-backtest/internal/logger"
	"kite-alert-backtest/internal/types"
)

const (
	dayInterval = "day"

	// Kite serves at most this many days of daily candles per request.
	maxDaysPerRequest = 2000

	DefaultMinDelay   = 600 * time.Millisecond
	DefaultRetryWait  = 10 * time.Second
	DefaultMaxRetries = 5
)

type Params struct {
	APIKey      string
	AccessToken string
	MinDelay    time.Duration
	RetryWait   time.Duration
	MaxRetries  int
}

// kiteAPI is the subset of the Kite Connect client used for history.
type kiteAPI interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

// HistoricalClient fetches daily candles from Kite Connect, spacing calls by
// MinDelay and retrying rate-limited calls after RetryWait.
type HistoricalClient struct {
	api        kiteAPI
	limiter    *rate.Limiter
	retryWait  time.Duration
	maxRetries uint64
}

var _ interfaces.HistoricalSource = (*HistoricalClient)(nil)

func NewHistoricalClient(p Params) *HistoricalClient {
	kc := kiteconnect.New(p.APIKey)
	if p.AccessToken != "" {
		kc.SetAccessToken(p.AccessToken)
	}
	return newHistoricalClient(kc, p)
}

func newHistoricalClient(api kiteAPI, p Params) *HistoricalClient {
	if p.MinDelay <= 0 {
		p.MinDelay = DefaultMinDelay
	}
	if p.RetryWait < 0 {
		p.RetryWait = DefaultRetryWait
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	return &HistoricalClient{
		api:        api,
		limiter:    rate.NewLimiter(rate.Every(p.MinDelay), 1),
		retryWait:  p.RetryWait,
		maxRetries: uint64(p.MaxRetries),
	}
}

// DailyCandles returns daily candles for inst between from and to inclusive.
// Long ranges are split into request-sized windows and concatenated in order.
func (c *HistoricalClient) DailyCandles(ctx context.Context, inst types.Instrument, from, to time.Time) ([]types.RawCandle, error) {
	var out []types.RawCandle
	for _, w := range windows(from, to) {
		data, err := c.fetch(ctx, inst, w[0], w[1])
		if err != nil {
			return nil, err
		}
		for _, d := range data {
			out = append(out, types.RawCandle{
				Date:   d.Date.Time,
				Open:   d.Open,
				High:   d.High,
				Low:    d.Low,
				Close:  d.Close,
				Volume: d.Volume,
			})
		}
	}
	return out, nil
}

func (c *HistoricalClient) fetch(ctx context.Context, inst types.Instrument, from, to time.Time) ([]kiteconnect.HistoricalData, error) {
	op := func() ([]kiteconnect.HistoricalData, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		data, err := c.api.GetHistoricalData(inst.Token, dayInterval, from, to, false, false)
		if err == nil {
			return data, nil
		}
		if IsRateLimited(err) {
			logger.Warn(ctx, "Rate limit hit, backing off",
				"symbol", inst.Tradingsymbol,
				"wait", c.retryWait.String(),
			)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryWait), c.maxRetries), ctx)
	data, err := backoff.RetryWithData(op, b)
	if err != nil {
		return nil, fmt.Errorf("historical data for %s (%d): %w", inst.Tradingsymbol, inst.Token, err)
	}
	return data, nil
}

// IsRateLimited reports whether err is Kite's HTTP 429 response.
func IsRateLimited(err error) bool {
	var kerr kiteconnect.Error
	if errors.As(err, &kerr) && kerr.Code == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// windows splits [from, to] into consecutive inclusive spans of at most
// maxDaysPerRequest days.
func windows(from, to time.Time) [][2]time.Time {
	if to.Before(from) {
		return nil
	}
	var out [][2]time.Time
	for start := from; !start.After(to); {
		end := start.AddDate(0, 0, maxDaysPerRequest-1)
		if end.After(to) {
			end = to
		}
		out = append(out, [2]time.Time{start, end})
		start = end.AddDate(0, 0, 1)
	}
	return out
}
