package analysis

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// ReturnInterval is the resampled confidence interval of a trade-return
// statistic, printed under the held-out return histogram
type ReturnInterval struct {
	Mean   float64
	Lower  float64
	Upper  float64
	StdDev float64
}

// Mean is the arithmetic mean, the default statistic for trade returns
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Bootstrap resamples the returns with replacement, applies the statistic to
// each resample and reports the two-sided interval at the given confidence
// (0.95 for a 95% interval). An empty sample yields a zero interval.
func Bootstrap(returns []float64, statistic func([]float64) float64,
	resamples int, confidence float64) ReturnInterval {

	if len(returns) == 0 {
		return ReturnInterval{}
	}

	stats := make([]float64, resamples)
	scratch := make([]float64, len(returns))
	for i := range stats {
		for j := range scratch {
			scratch[j] = lo.Sample(returns)
		}
		stats[i] = statistic(scratch)
	}
	sort.Float64s(stats)

	mean, stdDev := stat.MeanStdDev(stats, nil)
	tail := (1 - confidence) / 2

	return ReturnInterval{
		Mean:   mean,
		Lower:  stat.Quantile(tail, stat.LinInterp, stats, nil),
		Upper:  stat.Quantile(1-tail, stat.LinInterp, stats, nil),
		StdDev: stdDev,
	}
}
