package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPanelInnerJoinsDates(t *testing.T) {
	// MSFT is missing day 2; the panel must drop that date for all symbols
	msft := dailySeries("MSFT", 5)
	msft = append(msft[:2], msft[3:]...)

	feeder := &countingFeeder{series: map[string]core.PriceSeries{
		"AAPL": dailySeries("AAPL", 5),
		"MSFT": msft,
	}}
	cache := newTestCache(t, feeder)

	panel, err := cache.FetchPanel(context.Background(), []string{"AAPL", "MSFT"},
		FieldClose, day(0), day(4), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, FieldClose, panel.Field)
	assert.Equal(t, []time.Time{day(0), day(1), day(3), day(4)}, panel.Dates)
	require.Len(t, panel.Columns, 2)
	assert.Equal(t, []float64{100, 101, 103, 104}, panel.Columns["AAPL"])
	assert.Len(t, panel.Columns["MSFT"], 4)
}

func TestFetchPanelDeduplicatesSymbols(t *testing.T) {
	feeder := &countingFeeder{series: map[string]core.PriceSeries{
		"AAPL": dailySeries("AAPL", 3),
	}}
	cache := newTestCache(t, feeder)

	panel, err := cache.FetchPanel(context.Background(), []string{"AAPL", "AAPL", "AAPL"},
		FieldVolume, day(0), day(2), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, feeder.calls)
	require.Len(t, panel.Columns, 1)
	assert.Equal(t, []float64{1000, 1000, 1000}, panel.Columns["AAPL"])
}

func TestFetchPanelNoSymbols(t *testing.T) {
	cache := newTestCache(t, &countingFeeder{})

	_, err := cache.FetchPanel(context.Background(), nil, FieldClose, day(0), day(4), time.Hour)
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}

func TestFetchPanelFailingSymbolFailsThePanel(t *testing.T) {
	feeder := &countingFeeder{series: map[string]core.PriceSeries{
		"AAPL": dailySeries("AAPL", 5),
	}}
	cache := newTestCache(t, feeder)

	_, err := cache.FetchPanel(context.Background(), []string{"AAPL", "UNKNOWN"},
		FieldClose, day(0), day(4), time.Hour)
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}
