// Package signal turns backtest outcomes into an actionable position state
// and aggregates many strategies into one consensus decision.
package signal

import (
	"github.com/raykavin/rulegate/pkg/backtest"
	"github.com/raykavin/rulegate/pkg/core"
)

// Extract runs the harness over the recent series with the optimized
// parameters and reads the current position state from the trade list.
// An empty trade list is FLAT: no evidence of a position. Otherwise only the
// last trade matters: still open means LONG, closed means FLAT.
func Extract(rule core.Rule, params core.Params, recent core.PriceSeries,
	opts backtest.Options) (core.Signal, error) {

	report, err := backtest.Run(rule, params, recent, opts)
	if err != nil {
		return core.SignalError, err
	}

	return FromReport(report), nil
}

// FromReport derives the position state from a finished backtest report
func FromReport(report *core.PerformanceReport) core.Signal {
	last, ok := report.LastTrade()
	if !ok {
		return core.SignalFlat
	}
	if last.Open() {
		return core.SignalLong
	}
	return core.SignalFlat
}
