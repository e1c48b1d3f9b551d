package analysis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestBootstrapIntervalCoversTheSampleMean(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	interval := Bootstrap(values, Mean, 2000, 0.95)

	assert.LessOrEqual(t, interval.Lower, interval.Upper)
	assert.Greater(t, interval.StdDev, 0.0)
	assert.InDelta(t, 5.5, interval.Mean, 1.5)
	assert.LessOrEqual(t, interval.Lower, 5.5)
	assert.GreaterOrEqual(t, interval.Upper, 5.5)
}

func TestBootstrapEmptySample(t *testing.T) {
	assert.Equal(t, ReturnInterval{}, Bootstrap(nil, Mean, 100, 0.95))
}

func sampleSummary() Summary {
	sharpe := 1.4
	winRate := 0.75
	return Summary{
		Results: []core.OptimizationResult{
			{
				StrategyName: "golden-cross",
				Category:     "trend",
				Symbol:       "AAPL",
				Verdict:      core.VerdictPass,
				TriesUsed:    25,
				TestReport: &core.PerformanceReport{
					Symbol:      "AAPL",
					TradeCount:  12,
					Sharpe:      &sharpe,
					WinRate:     &winRate,
					MaxDrawdown: 0.12,
					TotalReturn: 0.3,
					Trades: []core.Trade{
						{EntryPrice: 100, Size: 10, PnL: 50},
						{EntryPrice: 110, Size: 10, PnL: -20},
					},
				},
			},
			{
				StrategyName: "broken",
				Category:     "momentum",
				Symbol:       "MSFT",
				Verdict:      core.VerdictFail,
				TriesUsed:    25,
			},
		},
		Skipped: 1,
		Errors:  2,
	}
}

func TestSummaryCounts(t *testing.T) {
	passed, failed := sampleSummary().Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteTable(&buf))

	out := buf.String()
	assert.Contains(t, out, "golden-cross")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "1.40")
	assert.Contains(t, out, "1 PASS / 1 FAIL")
	assert.Contains(t, out, "2 ERROR")
	assert.Contains(t, out, "1 SKIP")

	// A result with no report renders placeholders instead of zeros
	brokenRow := false
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "broken") && strings.Contains(line, "-") {
			brokenRow = true
		}
	}
	assert.True(t, brokenRow)
}

func TestWriteReturnHistogram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteReturnHistogram(&buf))

	out := buf.String()
	assert.Contains(t, out, "HELD-OUT TRADE RETURNS")
	assert.Contains(t, out, "MEAN RETURN")
}

func TestWriteReturnHistogramNoTrades(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary{}.WriteReturnHistogram(&buf))
	assert.Contains(t, buf.String(), "no trades to plot")
}
