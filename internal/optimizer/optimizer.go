package optimizer

import (
	"github.com/civium/aegis/pkg/types"
)

// Optimizer scores candidate options against a KPI registry. It is
// stateless and safe for concurrent use.
type Optimizer struct {
	meta Meta
}

// New creates an optimizer over the given registry.
func New(meta Meta) *Optimizer {
	return &Optimizer{meta: meta}
}

// Meta returns the optimizer's KPI registry.
func (o *Optimizer) Meta() Meta { return o.meta }

// ScoredOption is a candidate with its collapsed weighted-sum score.
type ScoredOption struct {
	types.Option
	NormalizedScore float64 `json:"normalized_score"`
}

// Normalize maps a raw KPI value into [0,1] according to the KPI's sense and
// bounds. Out-of-bounds values are clamped, not rejected.
func Normalize(value float64, meta KPIMeta) float64 {
	scaled := (value - meta.Min) / (meta.Max - meta.Min)
	if meta.Sense == SenseMin {
		scaled = 1.0 - scaled
	}
	return clamp01(scaled)
}

// WeightedSumScore collapses an option's KPI values into one score. Weights
// align index-wise with the registry's name order. Only KPIs with a positive
// weight and a present value contribute; the sum is divided by the weight
// actually applied. Zero applied weight yields a neutral 0.5.
func (o *Optimizer) WeightedSumScore(option types.Option, weights []float64) float64 {
	score := 0.0
	applied := 0.0

	for i, name := range o.meta.names {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		value, ok := option.Values[name]
		if !ok {
			continue
		}
		score += weights[i] * Normalize(value, o.meta.byName[name])
		applied += weights[i]
	}

	if applied == 0 {
		return 0.5
	}
	return clamp01(score / applied)
}

// SelectBest returns the option with the maximum weighted-sum score. Ties
// break toward the first-encountered option.
func (o *Optimizer) SelectBest(options []types.Option, weights []float64) (ScoredOption, bool) {
	if len(options) == 0 {
		return ScoredOption{}, false
	}

	best := ScoredOption{Option: options[0], NormalizedScore: o.WeightedSumScore(options[0], weights)}
	for _, opt := range options[1:] {
		score := o.WeightedSumScore(opt, weights)
		if score > best.NormalizedScore {
			best = ScoredOption{Option: opt, NormalizedScore: score}
		}
	}
	return best, true
}

// ScoreAll returns every option with its score, preserving input order.
func (o *Optimizer) ScoreAll(options []types.Option, weights []float64) []ScoredOption {
	out := make([]ScoredOption, 0, len(options))
	for _, opt := range options {
		out = append(out, ScoredOption{Option: opt, NormalizedScore: o.WeightedSumScore(opt, weights)})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
