// Package strategies ships deterministic trading rules implementing the
// core.Rule contract, each bound to a declarative spec with default
// parameters the optimizer can tune.
package strategies

import (
	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/indicator"
)

// SMACross goes long when the fast simple moving average crosses above the
// slow one and exits on the opposite cross
type SMACross struct{}

// Name implements core.Rule
func (SMACross) Name() string { return "sma_cross" }

// WarmupPeriod implements core.Rule
func (SMACross) WarmupPeriod(params core.Params) int {
	return intParam(params, "slow_period", 30) + 1
}

// OnBar implements core.Rule
func (s SMACross) OnBar(df *core.Dataframe, params core.Params) core.Action {
	fast := intParam(params, "fast_period", 10)
	slow := intParam(params, "slow_period", 30)
	if fast < 1 || slow <= fast || df.Len() < slow+2 {
		return core.Hold
	}

	fastSMA := core.Series[float64](indicator.SMA(df.Close, fast))
	slowSMA := core.Series[float64](indicator.SMA(df.Close, slow))

	if fastSMA.Crossover(slowSMA) {
		return core.Enter
	}
	if fastSMA.Crossunder(slowSMA) {
		return core.Exit
	}
	return core.Hold
}

// SMACrossSpec describes the rule for a symbol with its tunable defaults
func SMACrossSpec(symbol string) core.StrategySpec {
	return core.StrategySpec{
		Name:         "sma_cross",
		Knowledge:    "builtin",
		Category:     "trend",
		Symbol:       symbol,
		Timeframe:    "1d",
		EntrySignal:  "fast SMA crosses above slow SMA",
		ExitSignal:   "fast SMA crosses below slow SMA",
		StopLoss:     0.1,
		PositionSize: 1.0,
		DefaultParams: core.Params{
			"fast_period": 10,
			"slow_period": 30,
		},
	}
}

// intParam reads a numeric parameter as an integer period, falling back to
// the declared default when absent
func intParam(params core.Params, name string, fallback int) int {
	if v, ok := params[name]; ok {
		return int(v)
	}
	return fallback
}

func floatParam(params core.Params, name string, fallback float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return fallback
}
