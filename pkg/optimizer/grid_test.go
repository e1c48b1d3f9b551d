package optimizer

import (
	"testing"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGridExpandsAroundDefaults(t *testing.T) {
	g := buildGrid(core.Params{"period": 20}, 5)

	require.Equal(t, []string{"period"}, g.names)
	require.Len(t, g.values[0], 5)
	assert.Equal(t, []float64{10, 15, 20, 30, 40}, g.values[0])
}

func TestBuildGridZeroDefaultStaysFixed(t *testing.T) {
	g := buildGrid(core.Params{"offset": 0, "period": 10}, 5)

	require.Equal(t, []string{"offset", "period"}, g.names)
	assert.Equal(t, []float64{0}, g.values[0])
	assert.Len(t, g.values[1], 5)
	assert.Equal(t, 5, g.size())
}

func TestGridCombinationIsStable(t *testing.T) {
	defaults := core.Params{"fast": 10, "slow": 30}
	g := buildGrid(defaults, 5)

	require.Equal(t, 25, g.size())

	first := g.combination(7)
	second := g.combination(7)
	assert.Equal(t, first, second)

	// The all-defaults index materializes exactly the defaults
	assert.Equal(t, defaults, g.combination(g.defaultIndex(defaults)))
}

func TestSampleIndicesWithinBudget(t *testing.T) {
	defaults := core.Params{"fast": 10, "slow": 30}
	g := buildGrid(defaults, 5)

	indices := g.sampleIndices(100, defaults)
	assert.Len(t, indices, 25, "full product fits the budget")

	indices = g.sampleIndices(10, defaults)
	assert.Len(t, indices, 10)
	assert.Contains(t, indices, g.defaultIndex(defaults),
		"the declared baseline is always evaluated")
	assert.IsIncreasing(t, indices)
}

func TestSampleIndicesDeterministic(t *testing.T) {
	defaults := core.Params{"a": 1, "b": 2, "c": 3}
	g := buildGrid(defaults, 5)

	first := g.sampleIndices(40, defaults)
	second := g.sampleIndices(40, defaults)
	assert.Equal(t, first, second)
}

func TestDistanceFromDefaults(t *testing.T) {
	defaults := core.Params{"fast": 10, "slow": 30}

	assert.Zero(t, distanceFromDefaults(defaults.Clone(), defaults))
	assert.Greater(t, distanceFromDefaults(core.Params{"fast": 20, "slow": 30}, defaults), 0.0)

	near := distanceFromDefaults(core.Params{"fast": 11, "slow": 30}, defaults)
	far := distanceFromDefaults(core.Params{"fast": 20, "slow": 60}, defaults)
	assert.Less(t, near, far)
}
