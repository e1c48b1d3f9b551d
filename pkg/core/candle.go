package core

import (
	"fmt"
	"strconv"
	"time"
)

// Candle represents one daily trading bar with OHLCV data
type Candle struct {
	Symbol string
	Time   time.Time
	Open   float64
	Close  float64
	Low    float64
	High   float64
	Volume float64
}

// GetSymbol returns the ticker the candle belongs to
func (c Candle) GetSymbol() string { return c.Symbol }

// GetTime returns the timestamp of the candle
func (c Candle) GetTime() time.Time { return c.Time }

// GetOpen returns the opening price of the candle
func (c Candle) GetOpen() float64 { return c.Open }

// GetClose returns the closing price of the candle
func (c Candle) GetClose() float64 { return c.Close }

// GetLow returns the lowest price during the candle period
func (c Candle) GetLow() float64 { return c.Low }

// GetHigh returns the highest price during the candle period
func (c Candle) GetHigh() float64 { return c.High }

// GetVolume returns the trading volume during the candle period
func (c Candle) GetVolume() float64 { return c.Volume }

// IsEmpty checks if the candle contains no significant data
func (c Candle) IsEmpty() bool { return c.Symbol == "" && c.Close == 0 && c.Open == 0 && c.Volume == 0 }

// IsValid reports whether all required fields are populated.
// Rows failing this check are dropped before panel construction.
func (c Candle) IsValid() bool {
	return !c.Time.IsZero() && c.Open > 0 && c.High > 0 && c.Low > 0 && c.Close > 0 && c.Volume >= 0
}

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// PriceSeries is an ordered-by-date sequence of daily candles.
// Invariant: strictly increasing timestamps, no duplicate dates.
type PriceSeries []Candle

// Validate checks the ordering invariant of the series
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: candle %d (%s) not after candle %d (%s)",
				ErrSeriesUnordered, i, s[i].Time.Format("2006-01-02"), i-1, s[i-1].Time.Format("2006-01-02"))
		}
	}
	return nil
}

// SplitAt divides the series at the given date. Candles with a timestamp
// at or before the split date go to the first window, the rest to the second.
func (s PriceSeries) SplitAt(split time.Time) (fit, test PriceSeries) {
	for i, candle := range s {
		if candle.Time.After(split) {
			return s[:i], s[i:]
		}
	}
	return s, nil
}

// LastN returns the trailing n candles, or the whole series when shorter
func (s PriceSeries) LastN(n int) PriceSeries {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// Clone returns an independent copy of the series.
// Workers evaluating combinations concurrently must each receive their own copy.
func (s PriceSeries) Clone() PriceSeries {
	out := make(PriceSeries, len(s))
	copy(out, s)
	return out
}
