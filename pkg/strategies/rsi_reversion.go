package strategies

import (
	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/indicator"
)

// RSIReversion buys oversold conditions and sells overbought ones
type RSIReversion struct{}

// Name implements core.Rule
func (RSIReversion) Name() string { return "rsi_reversion" }

// WarmupPeriod implements core.Rule
func (RSIReversion) WarmupPeriod(params core.Params) int {
	return intParam(params, "period", 14) + 1
}

// OnBar implements core.Rule
func (r RSIReversion) OnBar(df *core.Dataframe, params core.Params) core.Action {
	period := intParam(params, "period", 14)
	oversold := floatParam(params, "oversold", 30)
	overbought := floatParam(params, "overbought", 70)
	if period < 2 || df.Len() < period+2 {
		return core.Hold
	}

	rsi := core.Series[float64](indicator.RSI(df.Close, period))

	if rsi.Last(0) < oversold {
		return core.Enter
	}
	if rsi.Last(0) > overbought {
		return core.Exit
	}
	return core.Hold
}

// RSIReversionSpec describes the rule for a symbol with its tunable defaults
func RSIReversionSpec(symbol string) core.StrategySpec {
	return core.StrategySpec{
		Name:         "rsi_reversion",
		Knowledge:    "builtin",
		Category:     "mean_reversion",
		Symbol:       symbol,
		Timeframe:    "1d",
		EntrySignal:  "RSI below oversold level",
		ExitSignal:   "RSI above overbought level",
		StopLoss:     0.08,
		PositionSize: 1.0,
		DefaultParams: core.Params{
			"period":     14,
			"oversold":   30,
			"overbought": 70,
		},
	}
}
