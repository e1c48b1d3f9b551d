package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedUpstream serves a fixed daily history in pages, the way the klines
// endpoint does: at most limit bars per request, starting at from.
type pagedUpstream struct {
	history core.PriceSeries
	calls   int
}

func (u *pagedUpstream) fetch(_ context.Context, from time.Time, limit int) (core.PriceSeries, error) {
	u.calls++

	var page core.PriceSeries
	for _, candle := range u.history {
		if candle.Time.Before(from) {
			continue
		}
		page = append(page, candle)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func TestCollectPagesWalksTheFullRange(t *testing.T) {
	upstream := &pagedUpstream{history: dailySeries("BTCUSDT", 25)}

	series, err := collectPages(context.Background(), day(0), day(24), 10, upstream.fetch)
	require.NoError(t, err)

	require.Len(t, series, 25, "three pages stitched without gaps")
	assert.Equal(t, 3, upstream.calls)
	assert.NoError(t, series.Validate(), "pages never overlap")
	assert.Equal(t, day(0), series[0].Time)
	assert.Equal(t, day(24), series[len(series)-1].Time)
}

func TestCollectPagesSingleShortPage(t *testing.T) {
	upstream := &pagedUpstream{history: dailySeries("BTCUSDT", 5)}

	series, err := collectPages(context.Background(), day(0), day(365), 10, upstream.fetch)
	require.NoError(t, err)

	assert.Len(t, series, 5)
	assert.Equal(t, 1, upstream.calls, "a short page ends the walk")
}

func TestCollectPagesEmptyUpstream(t *testing.T) {
	upstream := &pagedUpstream{}

	series, err := collectPages(context.Background(), day(0), day(30), 10, upstream.fetch)
	require.NoError(t, err)
	assert.Empty(t, series)
	assert.Equal(t, 1, upstream.calls)
}

func TestCollectPagesPropagatesFetchError(t *testing.T) {
	boom := errors.New("rate limited")
	fetch := func(context.Context, time.Time, int) (core.PriceSeries, error) {
		return nil, boom
	}

	_, err := collectPages(context.Background(), day(0), day(30), 10, fetch)
	assert.ErrorIs(t, err, boom)
}
