package backtest

import (
	"math"

	"github.com/raykavin/rulegate/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// tradingDaysPerYear annualizes daily-bar statistics
const tradingDaysPerYear = 252

func buildReport(series core.PriceSeries, trades []core.Trade, equity []float64,
	barsInPosition int, commissionPaid float64, opts Options) *core.PerformanceReport {

	last := len(series) - 1
	report := &core.PerformanceReport{
		Symbol:         series[0].Symbol,
		Start:          series[0].Time,
		End:            series[last].Time,
		TotalReturn:    equity[last]/opts.InitialCash - 1,
		BuyHoldReturn:  series[last].Close/series[0].Close - 1,
		MaxDrawdown:    maxDrawdown(equity),
		TradeCount:     len(trades),
		ExposureTime:   float64(barsInPosition) / float64(len(series)),
		FinalEquity:    equity[last],
		CommissionPaid: commissionPaid,
		Trades:         trades,
	}

	// Zero trades means no evidence: Sharpe and win rate stay nil, not zero
	if len(trades) == 0 {
		return report
	}

	if sharpe, ok := sharpeRatio(equity); ok {
		report.Sharpe = &sharpe
	}

	wins := 0
	for _, trade := range trades {
		if trade.PnL > 0 {
			wins++
		}
	}
	winRate := float64(wins) / float64(len(trades))
	report.WinRate = &winRate

	return report
}

// sharpeRatio computes the annualized Sharpe ratio of the daily equity
// returns. Returns ok=false when the curve has zero variance, which makes
// the ratio undefined.
func sharpeRatio(equity []float64) (float64, bool) {
	if len(equity) < 2 {
		return 0, false
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			return 0, false
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}

	mean, stdDev := stat.MeanStdDev(returns, nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0, false
	}

	return mean / stdDev * math.Sqrt(tradingDaysPerYear), true
}

// maxDrawdown returns the deepest peak-to-trough decline of the equity curve
// as a positive fraction
func maxDrawdown(equity []float64) float64 {
	var (
		peak     = math.Inf(-1)
		drawdown float64
	)

	for _, value := range equity {
		if value > peak {
			peak = value
		}
		if peak > 0 {
			if dd := (peak - value) / peak; dd > drawdown {
				drawdown = dd
			}
		}
	}

	return drawdown
}
