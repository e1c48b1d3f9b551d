package marketdata

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/raykavin/rulegate/pkg/core"
)

// dailyInterval is the only timeframe the pipeline evaluates
const dailyInterval = "1d"

// klinesPageLimit is the largest page the klines endpoint serves per request
const klinesPageLimit = 1000

// BinanceFeeder serves daily klines from the Binance REST API.
// It implements core.Feeder and is the default upstream of the cache.
type BinanceFeeder struct {
	client *binance.Client
}

// NewBinanceFeeder creates a feeder; credentials are optional for public
// kline history
func NewBinanceFeeder(apiKey, secret string) *BinanceFeeder {
	return &BinanceFeeder{
		client: binance.NewClient(apiKey, secret),
	}
}

// CandlesByPeriod gets daily candles for a symbol within a time range.
// Ranges longer than one kline page are fetched page by page so multi-year
// histories come back complete.
func (f *BinanceFeeder) CandlesByPeriod(ctx context.Context, symbol string,
	start, end time.Time) (core.PriceSeries, error) {

	return collectPages(ctx, start, end, klinesPageLimit,
		func(ctx context.Context, from time.Time, limit int) (core.PriceSeries, error) {
			data, err := f.client.NewKlinesService().
				Symbol(symbol).
				Interval(dailyInterval).
				StartTime(from.UnixNano() / int64(time.Millisecond)).
				EndTime(end.UnixNano() / int64(time.Millisecond)).
				Limit(limit).
				Do(ctx)
			if err != nil {
				return nil, err
			}

			page := make(core.PriceSeries, 0, len(data))
			for _, kline := range data {
				page = append(page, convertKlineToCandle(symbol, *kline))
			}
			return page, nil
		})
}

// collectPages walks the range one page at a time, resuming each request one
// day after the last bar served. A short or empty page ends the walk.
func collectPages(ctx context.Context, start, end time.Time, limit int,
	fetch func(ctx context.Context, from time.Time, limit int) (core.PriceSeries, error)) (core.PriceSeries, error) {

	var series core.PriceSeries
	from := start

	for !from.After(end) {
		page, err := fetch(ctx, from, limit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		series = append(series, page...)
		if len(page) < limit {
			break
		}

		from = page[len(page)-1].Time.AddDate(0, 0, 1)
	}

	return series, nil
}

// convertKlineToCandle converts a Binance kline to a core.Candle
func convertKlineToCandle(symbol string, k binance.Kline) core.Candle {
	candle := core.Candle{
		Symbol: symbol,
		Time:   time.Unix(0, k.OpenTime*int64(time.Millisecond)).UTC(),
	}

	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)

	return candle
}
