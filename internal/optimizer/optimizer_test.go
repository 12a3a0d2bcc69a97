package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civium/aegis/pkg/types"
)

func TestNewMetaRejectsBadDefinitions(t *testing.T) {
	_, err := NewMeta(map[string]KPIMeta{"x": {Sense: "sideways", Min: 0, Max: 1}})
	require.Error(t, err)

	_, err = NewMeta(map[string]KPIMeta{"x": {Sense: SenseMax, Min: 1, Max: 1}})
	require.Error(t, err)
}

func TestMetaNameOrderIsDeterministic(t *testing.T) {
	meta := DefaultMeta()
	want := []string{
		"atkinson_index", "carbon_intensity", "real_wage",
		"rent_burden", "reserve_margin", "unemployment",
	}
	assert.Equal(t, want, meta.Names())
}

func TestNormalize(t *testing.T) {
	maxSense := KPIMeta{Sense: SenseMax, Min: 10, Max: 60}
	minSense := KPIMeta{Sense: SenseMin, Min: 0, Max: 20}

	assert.InDelta(t, 0.5, Normalize(35, maxSense), 1e-9)
	assert.InDelta(t, 1.0, Normalize(60, maxSense), 1e-9)
	assert.InDelta(t, 0.75, Normalize(5, minSense), 1e-9)

	// Out-of-bounds values clamp instead of failing.
	assert.Equal(t, 1.0, Normalize(100, maxSense))
	assert.Equal(t, 0.0, Normalize(-5, maxSense))
	assert.Equal(t, 0.0, Normalize(25, minSense))
}

func newTestOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	meta, err := NewMeta(map[string]KPIMeta{
		"real_wage":    {Sense: SenseMax, Min: 0, Max: 100},
		"unemployment": {Sense: SenseMin, Min: 0, Max: 20},
	})
	require.NoError(t, err)
	return New(meta)
}

func TestWeightedSumScore(t *testing.T) {
	o := newTestOptimizer(t)
	option := types.Option{
		ActionType: "housing_credits",
		Values:     map[string]float64{"real_wage": 50, "unemployment": 5},
	}

	// Names order: real_wage, unemployment.
	score := o.WeightedSumScore(option, []float64{0.5, 0.5})
	assert.InDelta(t, 0.625, score, 1e-9)

	// Missing value: divide by applied weight only.
	partial := types.Option{Values: map[string]float64{"real_wage": 50}}
	assert.InDelta(t, 0.5, o.WeightedSumScore(partial, []float64{0.5, 0.5}), 1e-9)

	// Zero total weight yields neutral score.
	assert.Equal(t, 0.5, o.WeightedSumScore(option, []float64{0, 0}))
	assert.Equal(t, 0.5, o.WeightedSumScore(option, nil))
}

func TestWeightedSumScoreMonotonicity(t *testing.T) {
	o := newTestOptimizer(t)
	weights := []float64{0.6, 0.4}

	prev := -1.0
	for wage := 0.0; wage <= 100; wage += 5 {
		score := o.WeightedSumScore(types.Option{
			Values: map[string]float64{"real_wage": wage, "unemployment": 8},
		}, weights)
		assert.GreaterOrEqual(t, score, prev,
			"increasing a max-sense KPI must never decrease the score")
		prev = score
	}
}

func TestSelectBest(t *testing.T) {
	o := newTestOptimizer(t)
	options := []types.Option{
		{ActionType: "a", Values: map[string]float64{"real_wage": 40, "unemployment": 10}},
		{ActionType: "b", Values: map[string]float64{"real_wage": 80, "unemployment": 4}},
		{ActionType: "c", Values: map[string]float64{"real_wage": 80, "unemployment": 4}},
	}

	best, ok := o.SelectBest(options, []float64{0.5, 0.5})
	require.True(t, ok)
	assert.Equal(t, "b", best.ActionType, "ties break toward the first-encountered option")

	_, ok = o.SelectBest(nil, []float64{0.5, 0.5})
	assert.False(t, ok)
}

func TestScoreAllPreservesOrder(t *testing.T) {
	o := newTestOptimizer(t)
	options := []types.Option{
		{ActionType: "a", Values: map[string]float64{"real_wage": 10}},
		{ActionType: "b", Values: map[string]float64{"real_wage": 90}},
	}

	scored := o.ScoreAll(options, []float64{1, 0})
	require.Len(t, scored, 2)
	assert.Equal(t, "a", scored[0].ActionType)
	assert.Less(t, scored[0].NormalizedScore, scored[1].NormalizedScore)
}
