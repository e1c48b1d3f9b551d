package marketdata

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/logger"
	zlog "github.com/raykavin/rulegate/pkg/logger/zerolog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFeeder serves fixed series per symbol and counts upstream calls
type countingFeeder struct {
	series map[string]core.PriceSeries
	err    error
	calls  int
}

func (f *countingFeeder) CandlesByPeriod(_ context.Context, symbol string,
	_, _ time.Time) (core.PriceSeries, error) {

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	series, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	return series, nil
}

func quietLog() logger.Logger {
	nop := zerolog.Nop()
	return zlog.NewAdapter(&nop)
}

func day(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func dailySeries(symbol string, n int) core.PriceSeries {
	series := make(core.PriceSeries, n)
	for i := range series {
		price := 100 + float64(i)
		series[i] = core.Candle{
			Symbol: symbol,
			Time:   day(i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	return series
}

func newTestCache(t *testing.T, feeder core.Feeder) *Cache {
	t.Helper()
	cache, err := NewCache(t.TempDir(), feeder, quietLog())
	require.NoError(t, err)
	return cache
}

func TestFetchServesCachedEntryWithinMaxAge(t *testing.T) {
	feeder := &countingFeeder{series: map[string]core.PriceSeries{
		"AAPL": dailySeries("AAPL", 10),
	}}
	cache := newTestCache(t, feeder)
	ctx := context.Background()

	first, err := cache.Fetch(ctx, "AAPL", day(0), day(9), time.Hour)
	require.NoError(t, err)
	second, err := cache.Fetch(ctx, "AAPL", day(0), day(9), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, feeder.calls, "second fetch must come from disk")
	assert.Equal(t, first, second)
	require.Len(t, second, 10)
	assert.Equal(t, day(0), second[0].Time)
	assert.Equal(t, 100.0, second[0].Close)
}

func TestFetchZeroMaxAgeForcesRefresh(t *testing.T) {
	feeder := &countingFeeder{series: map[string]core.PriceSeries{
		"AAPL": dailySeries("AAPL", 5),
	}}
	cache := newTestCache(t, feeder)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "AAPL", day(0), day(4), 0)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, "AAPL", day(0), day(4), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, feeder.calls)
}

func TestFetchUpstreamFailureIsDataUnavailable(t *testing.T) {
	feeder := &countingFeeder{err: errors.New("rate limited")}
	cache := newTestCache(t, feeder)

	_, err := cache.Fetch(context.Background(), "AAPL", day(0), day(9), time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
	assert.Equal(t, maxFetchAttempts, feeder.calls, "bounded retries before giving up")
}

func TestFetchEmptyUpstreamIsDataUnavailable(t *testing.T) {
	feeder := &countingFeeder{series: map[string]core.PriceSeries{"AAPL": nil}}
	cache := newTestCache(t, feeder)

	_, err := cache.Fetch(context.Background(), "AAPL", day(0), day(9), time.Hour)
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}

func TestFetchNormalizesUpstreamRows(t *testing.T) {
	clean := dailySeries("AAPL", 5)
	dirty := make(core.PriceSeries, 0, 8)
	dirty = append(dirty, clean[0], clean[1])
	dirty = append(dirty, core.Candle{Symbol: "AAPL", Time: day(1), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}) // duplicate date
	dirty = append(dirty, core.Candle{Symbol: "AAPL", Time: day(2)})                                               // missing fields
	dirty = append(dirty, clean[2], clean[3])
	dirty = append(dirty, core.Candle{Symbol: "AAPL", Time: day(0), Open: 9, High: 9, Low: 9, Close: 9, Volume: 9}) // out of order
	dirty = append(dirty, clean[4])

	feeder := &countingFeeder{series: map[string]core.PriceSeries{"AAPL": dirty}}
	cache := newTestCache(t, feeder)

	series, err := cache.Fetch(context.Background(), "AAPL", day(0), day(4), time.Hour)
	require.NoError(t, err)

	require.NoError(t, series.Validate(), "persisted series is strictly ordered")
	assert.Equal(t, clean, series)
}

func TestFetchRoundTripsThroughDisk(t *testing.T) {
	source := dailySeries("AAPL", 30)
	feeder := &countingFeeder{series: map[string]core.PriceSeries{"AAPL": source}}
	cache := newTestCache(t, feeder)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "AAPL", day(0), day(29), time.Hour)
	require.NoError(t, err)

	fromDisk, err := cache.Fetch(ctx, "AAPL", day(0), day(29), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, feeder.calls)
	assert.Equal(t, source, fromDisk, "persisted precision preserves the values")
}
