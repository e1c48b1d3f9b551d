package core

import (
	"time"
)

// Dataframe is the columnar OHLCV view a rule evaluates against. It only
// ever grows forward; the harness owns it and appends one candle per bar.
type Dataframe struct {
	Symbol string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time       []time.Time
	LastUpdate time.Time
}

// NewDataframe creates an empty dataframe for the given symbol
func NewDataframe(symbol string) *Dataframe {
	return &Dataframe{Symbol: symbol}
}

// Append adds one candle to the end of the dataframe.
// The backtest harness grows the frame bar-by-bar so a rule evaluated at bar t
// can only ever see candles up to and including t.
func (df *Dataframe) Append(candle Candle) {
	df.Open = append(df.Open, candle.Open)
	df.Close = append(df.Close, candle.Close)
	df.High = append(df.High, candle.High)
	df.Low = append(df.Low, candle.Low)
	df.Volume = append(df.Volume, candle.Volume)
	df.Time = append(df.Time, candle.Time)
	df.LastUpdate = candle.Time
}

// Len returns the number of bars in the dataframe
func (df *Dataframe) Len() int {
	return len(df.Time)
}
