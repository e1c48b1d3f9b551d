package core

import (
	"context"
	"time"
)

// Feeder is an upstream source of daily candles for one symbol
type Feeder interface {
	CandlesByPeriod(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error)
}

// ResultStore persists optimization results keyed by strategy name and category
type ResultStore interface {
	Put(result OptimizationResult) error
	Get(name, category string) (*OptimizationResult, error)
	All() ([]OptimizationResult, error)
	// TopPassing returns up to n PASS-verdict results ordered by descending
	// held-out Sharpe ratio
	TopPassing(n int) ([]OptimizationResult, error)
	Reset() error
}

// Notifier receives human-facing updates about decisions and failures
type Notifier interface {
	Notify(message string)
	OnError(err error)
}
