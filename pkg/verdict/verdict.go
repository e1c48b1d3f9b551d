// Package verdict splits a price series into a fitting window and a held-out
// judging window and applies pass/fail criteria to the held-out result only.
// Parameters are never judged on the data used to discover them; this
// separation is the anti-overfitting guarantee of the pipeline.
package verdict

import (
	"fmt"
	"time"

	"github.com/raykavin/rulegate/pkg/backtest"
	"github.com/raykavin/rulegate/pkg/core"
)

// Thresholds are the pass/fail criteria applied to the held-out report
type Thresholds struct {
	// MinTrades prevents a single lucky trade from passing
	MinTrades int
	// MinSharpe is the lowest acceptable annualized held-out Sharpe ratio
	MinSharpe float64
	// MaxDrawdown is the deepest acceptable held-out drawdown fraction
	MaxDrawdown float64
}

// DefaultThresholds returns the standard gate configuration
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTrades:   5,
		MinSharpe:   0.5,
		MaxDrawdown: 0.35,
	}
}

// Evaluation carries both window reports and the verdict decided on the test window
type Evaluation struct {
	FitReport  *core.PerformanceReport
	TestReport *core.PerformanceReport
	Verdict    core.Verdict
}

// Engine runs the train/test evaluation for one rule and parameter set
type Engine struct {
	thresholds Thresholds
	options    backtest.Options
}

// NewEngine creates a verdict engine with the given gates and harness options
func NewEngine(thresholds Thresholds, options backtest.Options) *Engine {
	return &Engine{
		thresholds: thresholds,
		options:    options,
	}
}

// Thresholds returns the configured gates
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// OptionsFor derives the harness configuration for one spec: the engine's
// base options with the spec's declared stop-loss and position size applied
func (e *Engine) OptionsFor(spec core.StrategySpec) backtest.Options {
	opts := e.options
	opts.StopLoss = spec.StopLoss
	if spec.PositionSize > 0 {
		opts.PositionSize = spec.PositionSize
	}
	return opts
}

// Evaluate splits the series at splitDate, runs the harness independently on
// each window with the same parameter mapping, and decides PASS/FAIL from the
// held-out window alone. The fit report is informational.
func (e *Engine) Evaluate(rule core.Rule, params core.Params, series core.PriceSeries,
	splitDate time.Time) (*Evaluation, error) {
	return e.EvaluateWith(rule, params, series, splitDate, e.options)
}

// EvaluateWith runs the same train/test evaluation under per-run harness
// options, so each strategy is simulated with its own risk configuration
func (e *Engine) EvaluateWith(rule core.Rule, params core.Params, series core.PriceSeries,
	splitDate time.Time, options backtest.Options) (*Evaluation, error) {

	fitSeries, testSeries := series.SplitAt(splitDate)
	if len(fitSeries) == 0 || len(testSeries) == 0 {
		return nil, fmt.Errorf("%w: split at %s leaves an empty window (%d fit, %d test)",
			core.ErrInsufficientData, splitDate.Format("2006-01-02"), len(fitSeries), len(testSeries))
	}

	fitReport, err := backtest.Run(rule, params, fitSeries, options)
	if err != nil {
		return nil, fmt.Errorf("fit window: %w", err)
	}

	testReport, err := backtest.Run(rule, params, testSeries, options)
	if err != nil {
		return nil, fmt.Errorf("test window: %w", err)
	}

	return &Evaluation{
		FitReport:  fitReport,
		TestReport: testReport,
		Verdict:    e.decide(testReport),
	}, nil
}

// decide applies the gates to the held-out report. A nil Sharpe means zero
// trades or a degenerate equity curve: absence of evidence fails, it does
// not pass by default.
func (e *Engine) decide(test *core.PerformanceReport) core.Verdict {
	if test.Sharpe == nil {
		return core.VerdictFail
	}
	if test.TradeCount < e.thresholds.MinTrades {
		return core.VerdictFail
	}
	if *test.Sharpe < e.thresholds.MinSharpe {
		return core.VerdictFail
	}
	if test.MaxDrawdown > e.thresholds.MaxDrawdown {
		return core.VerdictFail
	}
	return core.VerdictPass
}
