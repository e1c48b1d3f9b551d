package signal

import (
	"sort"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/samber/lo"
)

// Tally counts the signals that feed one consensus decision. ERROR signals
// are counted and reported but excluded from the majority comparison.
type Tally struct {
	Longs  int
	Flats  int
	Errors int
}

// Count tallies a list of signals
func Count(signals []core.Signal) Tally {
	return Tally{
		Longs:  lo.Count(signals, core.SignalLong),
		Flats:  lo.Count(signals, core.SignalFlat),
		Errors: lo.Count(signals, core.SignalError),
	}
}

// Decision resolves the majority vote: LONG when strictly more LONG than
// FLAT, FLAT when strictly more FLAT, MIXED on an exact tie. Equal weighting
// is deliberate: each strategy already passed an independent statistical
// gate, so Sharpe-weighted voting would only compound estimation error.
func (t Tally) Decision() core.Consensus {
	switch {
	case t.Longs > t.Flats:
		return core.ConsensusLong
	case t.Flats > t.Longs:
		return core.ConsensusFlat
	default:
		return core.ConsensusMixed
	}
}

// RankPassing filters PASS-verdict results and orders them by descending
// held-out Sharpe ratio, truncated to topN when positive. Results without a
// defined test Sharpe never pass the verdict engine, but a nil check keeps
// the ordering total anyway.
func RankPassing(results []core.OptimizationResult, topN int) []core.OptimizationResult {
	passing := lo.Filter(results, func(r core.OptimizationResult, _ int) bool {
		return r.Verdict == core.VerdictPass
	})

	sort.SliceStable(passing, func(i, j int) bool {
		si, iOK := passing[i].TestSharpe()
		sj, jOK := passing[j].TestSharpe()
		if iOK != jOK {
			return iOK
		}
		return si > sj
	})

	if topN > 0 && len(passing) > topN {
		passing = passing[:topN]
	}
	return passing
}
