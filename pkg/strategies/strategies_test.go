package strategies

import (
	"testing"
	"time"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dfFromCloses(closes []float64) *core.Dataframe {
	df := core.NewDataframe("TEST")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, close := range closes {
		df.Append(core.Candle{
			Symbol: "TEST",
			Time:   start.AddDate(0, 0, i),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000,
		})
	}
	return df
}

func TestSMACrossEntersOnCrossover(t *testing.T) {
	params := core.Params{"fast_period": 2, "slow_period": 3}

	// Fast average overtakes the slow one on the final bar
	df := dfFromCloses([]float64{10, 9, 8, 7, 8, 12})
	assert.Equal(t, core.Enter, SMACross{}.OnBar(df, params))
}

func TestSMACrossExitsOnCrossunder(t *testing.T) {
	params := core.Params{"fast_period": 2, "slow_period": 3}

	df := dfFromCloses([]float64{10, 11, 12, 13, 12, 7})
	assert.Equal(t, core.Exit, SMACross{}.OnBar(df, params))
}

func TestSMACrossHoldsWithoutCross(t *testing.T) {
	params := core.Params{"fast_period": 2, "slow_period": 3}

	df := dfFromCloses([]float64{10, 11, 12, 13, 14, 15})
	assert.Equal(t, core.Hold, SMACross{}.OnBar(df, params))
}

func TestSMACrossHoldsOnShortData(t *testing.T) {
	params := core.Params{"fast_period": 2, "slow_period": 3}

	df := dfFromCloses([]float64{10, 9, 8})
	assert.Equal(t, core.Hold, SMACross{}.OnBar(df, params))
}

func TestSMACrossHoldsOnDegenerateParams(t *testing.T) {
	df := dfFromCloses([]float64{10, 9, 8, 7, 8, 12})

	// Slow period not above the fast one cannot cross meaningfully
	params := core.Params{"fast_period": 3, "slow_period": 3}
	assert.Equal(t, core.Hold, SMACross{}.OnBar(df, params))
}

func TestMomentumBreakout(t *testing.T) {
	params := core.Params{"lookback": 2, "threshold": 5.0}

	surge := dfFromCloses([]float64{100, 100, 100, 100, 100, 110})
	assert.Equal(t, core.Enter, MomentumBreakout{}.OnBar(surge, params))

	slump := dfFromCloses([]float64{100, 100, 100, 100, 100, 90})
	assert.Equal(t, core.Exit, MomentumBreakout{}.OnBar(slump, params))

	flat := dfFromCloses([]float64{100, 100, 100, 100, 100, 100})
	assert.Equal(t, core.Hold, MomentumBreakout{}.OnBar(flat, params))
}

func TestRSIReversion(t *testing.T) {
	params := core.Params{"period": 2, "oversold": 30, "overbought": 70}

	falling := dfFromCloses([]float64{100, 98, 96, 94, 92, 90})
	assert.Equal(t, core.Enter, RSIReversion{}.OnBar(falling, params))

	rising := dfFromCloses([]float64{100, 102, 104, 106, 108, 110})
	assert.Equal(t, core.Exit, RSIReversion{}.OnBar(rising, params))

	oscillating := dfFromCloses([]float64{100, 101, 100, 101, 100, 101})
	assert.Equal(t, core.Hold, RSIReversion{}.OnBar(oscillating, params))
}

func TestBuiltinSpecsAreValid(t *testing.T) {
	specs := []core.StrategySpec{
		SMACrossSpec("AAPL"),
		MomentumBreakoutSpec("AAPL"),
		RSIReversionSpec("AAPL"),
	}

	names := map[string]bool{}
	for _, spec := range specs {
		require.NoError(t, spec.Validate(), spec.Name)
		assert.NotEmpty(t, spec.DefaultParams, spec.Name)
		assert.False(t, names[spec.Name], "duplicate spec name %s", spec.Name)
		names[spec.Name] = true
	}
}

func TestWarmupCoversIndicatorWindow(t *testing.T) {
	assert.Equal(t, 31, SMACross{}.WarmupPeriod(nil))
	assert.Equal(t, 4, SMACross{}.WarmupPeriod(core.Params{"slow_period": 3}))
	assert.Equal(t, 21, MomentumBreakout{}.WarmupPeriod(nil))
	assert.Equal(t, 15, RSIReversion{}.WarmupPeriod(nil))
}
