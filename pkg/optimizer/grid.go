package optimizer

import (
	"math"
	"sort"

	"github.com/raykavin/rulegate/pkg/core"
)

// valuesPerParameter is the number of candidate values expanded around each
// parameter default
const defaultValuesPerParameter = 5

// grid holds the candidate values for every parameter in a fixed name order,
// so the Cartesian product enumerates identically on every run
type grid struct {
	names  []string
	values [][]float64
}

// buildGrid expands each numeric parameter into a candidate range around its
// default: evenly spaced values from half the default to double it, with the
// default itself always among them. A zero default cannot be scaled and stays
// a single fixed value.
func buildGrid(defaults core.Params, valuesPerParam int) grid {
	if valuesPerParam < 3 || valuesPerParam%2 == 0 {
		valuesPerParam = defaultValuesPerParameter
	}

	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([][]float64, len(names))
	for i, name := range names {
		values[i] = expandValues(defaults[name], valuesPerParam)
	}

	return grid{names: names, values: values}
}

func expandValues(def float64, count int) []float64 {
	if def == 0 {
		return []float64{0}
	}

	lo, hi := def/2, def*2
	if def < 0 {
		lo, hi = hi, lo
	}

	// Two even half-ranges on either side of the default keep the default
	// itself an exact member of the candidate list
	half := (count - 1) / 2
	values := make([]float64, 0, count)
	for i := 0; i < half; i++ {
		values = append(values, lo+(def-lo)*float64(i)/float64(half))
	}
	values = append(values, def)
	for i := 1; i <= half; i++ {
		values = append(values, def+(hi-def)*float64(i)/float64(half))
	}

	return values
}

// size returns the full Cartesian product cardinality
func (g grid) size() int {
	if len(g.values) == 0 {
		return 1
	}
	total := 1
	for _, vals := range g.values {
		total *= len(vals)
	}
	return total
}

// combination materializes the parameter set at the given product index.
// Index zero is the first combination in enumeration order; the mapping from
// index to values is fixed, which is what makes downsampling reproducible.
func (g grid) combination(index int) core.Params {
	params := make(core.Params, len(g.names))
	for i := len(g.values) - 1; i >= 0; i-- {
		n := len(g.values[i])
		params[g.names[i]] = g.values[i][index%n]
		index /= n
	}
	return params
}

// defaultIndex returns the product index of the all-defaults combination
func (g grid) defaultIndex(defaults core.Params) int {
	index := 0
	for i, name := range g.names {
		pos := 0
		for j, v := range g.values[i] {
			if v == defaults[name] {
				pos = j
				break
			}
		}
		index = index*len(g.values[i]) + pos
	}
	return index
}

// sampleIndices returns up to maxTries product indices. When the full product
// fits the budget all indices are returned; otherwise an even deterministic
// stride samples it down, always retaining the all-defaults combination so
// the declared baseline is evaluated on every run.
func (g grid) sampleIndices(maxTries int, defaults core.Params) []int {
	total := g.size()
	if total <= maxTries {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, maxTries)
	for i := 0; i < maxTries; i++ {
		indices[i] = i * total / maxTries
	}

	defIdx := g.defaultIndex(defaults)
	for _, idx := range indices {
		if idx == defIdx {
			return indices
		}
	}
	indices[0] = defIdx
	sort.Ints(indices)
	return indices
}

// distanceFromDefaults measures how far a combination strays from the
// declared defaults, normalized per parameter. Used as the stability
// preference when breaking score ties.
func distanceFromDefaults(params, defaults core.Params) float64 {
	var sum float64
	for name, def := range defaults {
		v := params[name]
		if def != 0 {
			d := (v - def) / def
			sum += d * d
		} else {
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}
