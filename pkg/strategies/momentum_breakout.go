package strategies

import (
	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/indicator"
)

// MomentumBreakout goes long when the rate of change over the lookback window
// exceeds a threshold and exits when momentum turns negative
type MomentumBreakout struct{}

// Name implements core.Rule
func (MomentumBreakout) Name() string { return "momentum_breakout" }

// WarmupPeriod implements core.Rule
func (MomentumBreakout) WarmupPeriod(params core.Params) int {
	return intParam(params, "lookback", 20) + 1
}

// OnBar implements core.Rule
func (m MomentumBreakout) OnBar(df *core.Dataframe, params core.Params) core.Action {
	lookback := intParam(params, "lookback", 20)
	threshold := floatParam(params, "threshold", 5.0) // percent
	if lookback < 1 || df.Len() < lookback+2 {
		return core.Hold
	}

	roc := core.Series[float64](indicator.ROC(df.Close, lookback))

	if roc.Last(0) > threshold {
		return core.Enter
	}
	if roc.Last(0) < 0 {
		return core.Exit
	}
	return core.Hold
}

// MomentumBreakoutSpec describes the rule for a symbol with its tunable defaults
func MomentumBreakoutSpec(symbol string) core.StrategySpec {
	return core.StrategySpec{
		Name:         "momentum_breakout",
		Knowledge:    "builtin",
		Category:     "momentum",
		Symbol:       symbol,
		Timeframe:    "1d",
		EntrySignal:  "rate of change over lookback window above threshold",
		ExitSignal:   "rate of change turns negative",
		StopLoss:     0.12,
		PositionSize: 1.0,
		DefaultParams: core.Params{
			"lookback":  20,
			"threshold": 5.0,
		},
	}
}
