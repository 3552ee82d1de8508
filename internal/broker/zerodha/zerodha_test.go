package zerodha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"kite-alert-backtest/internal/types"
)

type historicalCall struct {
	token    int
	interval string
	from, to time.Time
}

type fakeKite struct {
	errs  []error
	data  []kiteconnect.HistoricalData
	calls []historicalCall
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.calls = append(f.calls, historicalCall{token: token, interval: interval, from: from, to: to})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.data, nil
}

func testParams() Params {
	return Params{MinDelay: time.Millisecond, RetryWait: 0, MaxRetries: 3}
}

var tcs = types.Instrument{Token: 2953217, Tradingsymbol: "TCS"}

func TestDailyCandles_Converts(t *testing.T) {
	ts := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)
	api := &fakeKite{data: []kiteconnect.HistoricalData{
		{Date: models.Time{Time: ts}, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 1200},
	}}
	c := newHistoricalClient(api, testParams())

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := c.DailyCandles(context.Background(), tcs, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ts, got[0].Date)
	assert.Equal(t, 1.5, got[0].Close)
	assert.EqualValues(t, 1200, got[0].Volume)

	require.Len(t, api.calls, 1)
	assert.Equal(t, "day", api.calls[0].interval)
	assert.Equal(t, tcs.Token, api.calls[0].token)
}

func TestDailyCandles_RetriesRateLimit(t *testing.T) {
	api := &fakeKite{
		errs: []error{
			kiteconnect.Error{Code: 429, ErrorType: "NetworkException", Message: "Too many requests"},
			errors.New("HTTP 429"),
			nil,
		},
		data: []kiteconnect.HistoricalData{{Close: 10}},
	}
	c := newHistoricalClient(api, testParams())

	got, err := c.DailyCandles(context.Background(), tcs, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, api.calls, 3)
}

func TestDailyCandles_GivesUpAfterMaxRetries(t *testing.T) {
	limited := errors.New("Too many requests")
	api := &fakeKite{errs: []error{limited, limited, limited, limited, limited}}
	p := testParams()
	p.MaxRetries = 2
	c := newHistoricalClient(api, p)

	_, err := c.DailyCandles(context.Background(), tcs, time.Now(), time.Now())
	assert.ErrorIs(t, err, limited)
	assert.Len(t, api.calls, 3)
}

func TestDailyCandles_OtherErrorsArePermanent(t *testing.T) {
	boom := kiteconnect.Error{Code: 403, ErrorType: "TokenException", Message: "Incorrect api_key or access_token."}
	api := &fakeKite{errs: []error{boom}}
	c := newHistoricalClient(api, testParams())

	_, err := c.DailyCandles(context.Background(), tcs, time.Now(), time.Now())
	var kerr kiteconnect.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, 403, kerr.Code)
	assert.Len(t, api.calls, 1)
}

func TestDailyCandles_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &fakeKite{}
	c := newHistoricalClient(api, testParams())
	_, err := c.DailyCandles(ctx, tcs, time.Now(), time.Now())
	assert.Error(t, err)
}

func TestWindows(t *testing.T) {
	from := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	w := windows(from, from)
	require.Len(t, w, 1)
	assert.Equal(t, from, w[0][0])
	assert.Equal(t, from, w[0][1])

	to := from.AddDate(0, 0, maxDaysPerRequest+10)
	w = windows(from, to)
	require.Len(t, w, 2)
	assert.Equal(t, from.AddDate(0, 0, maxDaysPerRequest-1), w[0][1])
	assert.Equal(t, from.AddDate(0, 0, maxDaysPerRequest), w[1][0])
	assert.Equal(t, to, w[1][1])

	assert.Empty(t, windows(to, from))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(kiteconnect.Error{Code: 429}))
	assert.True(t, IsRateLimited(errors.New("status 429")))
	assert.True(t, IsRateLimited(errors.New("Too many requests")))
	assert.False(t, IsRateLimited(errors.New("invalid token")))
}
