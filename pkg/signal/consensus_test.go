package signal

import (
	"testing"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyDecision(t *testing.T) {
	cases := []struct {
		name    string
		signals []core.Signal
		want    core.Consensus
	}{
		{"long majority", []core.Signal{core.SignalLong, core.SignalLong, core.SignalFlat}, core.ConsensusLong},
		{"flat majority", []core.Signal{core.SignalFlat, core.SignalFlat, core.SignalLong}, core.ConsensusFlat},
		{"exact tie", []core.Signal{core.SignalLong, core.SignalFlat}, core.ConsensusMixed},
		{"errors excluded", []core.Signal{core.SignalLong, core.SignalLong, core.SignalError}, core.ConsensusLong},
		{"only errors", []core.Signal{core.SignalError, core.SignalError}, core.ConsensusMixed},
		{"empty", nil, core.ConsensusMixed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Count(tc.signals).Decision())
		})
	}
}

func TestCountTracksErrors(t *testing.T) {
	tally := Count([]core.Signal{core.SignalLong, core.SignalLong, core.SignalError})

	assert.Equal(t, 2, tally.Longs)
	assert.Equal(t, 0, tally.Flats)
	assert.Equal(t, 1, tally.Errors)
}

func passingResult(name string, sharpe float64) core.OptimizationResult {
	return core.OptimizationResult{
		StrategyName: name,
		Verdict:      core.VerdictPass,
		TestReport:   &core.PerformanceReport{Sharpe: &sharpe},
	}
}

func TestRankPassingOrdersBySharpe(t *testing.T) {
	results := []core.OptimizationResult{
		passingResult("low", 0.6),
		{StrategyName: "rejected", Verdict: core.VerdictFail},
		passingResult("high", 2.1),
		passingResult("mid", 1.3),
	}

	ranked := RankPassing(results, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].StrategyName)
	assert.Equal(t, "mid", ranked[1].StrategyName)
	assert.Equal(t, "low", ranked[2].StrategyName)
}

func TestRankPassingTruncatesToTopN(t *testing.T) {
	results := []core.OptimizationResult{
		passingResult("a", 0.6),
		passingResult("b", 2.1),
		passingResult("c", 1.3),
	}

	ranked := RankPassing(results, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].StrategyName)
	assert.Equal(t, "c", ranked[1].StrategyName)
}

func TestRankPassingEmptyInput(t *testing.T) {
	assert.Empty(t, RankPassing(nil, 5))
	assert.Empty(t, RankPassing([]core.OptimizationResult{
		{StrategyName: "rejected", Verdict: core.VerdictFail},
	}, 5))
}
