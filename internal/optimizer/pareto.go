package optimizer

import (
	"math/rand"
	"time"

	"github.com/civium/aegis/pkg/types"
)

// WeightedScore is one point on the approximate frontier: a weight vector
// and the best option score it produced.
type WeightedScore struct {
	Weights []float64 `json:"weights"`
	Score   float64   `json:"score"`
}

// ParetoParams tunes the frontier search. A nil Rand falls back to a
// time-seeded source; tests inject a fixed seed for reproducible runs.
type ParetoParams struct {
	Epsilon    float64
	Iterations int
	Rand       *rand.Rand
}

const (
	defaultEpsilon    = 0.05
	defaultIterations = 10
)

// ParetoFrontier approximates a Pareto-efficient frontier by randomized
// local search over weight space. It is an approximation, not an exact
// epsilon-constraint method: each iteration scores every option under the
// current weights, records the weights whenever the best score improves by
// more than epsilon, then perturbs each weight by ±epsilon (sign drawn from
// the random source, direction bias alternating with the parity of the
// recorded set) and renormalizes to sum 1.
func (o *Optimizer) ParetoFrontier(baseWeights []float64, options []types.Option, params ParetoParams) []WeightedScore {
	epsilon := params.Epsilon
	if epsilon <= 0 {
		epsilon = defaultEpsilon
	}
	iterations := params.Iterations
	if iterations <= 0 {
		iterations = defaultIterations
	}
	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	current := make([]float64, len(baseWeights))
	copy(current, baseWeights)

	var frontier []WeightedScore
	bestScore := 0.0
	bestSet := false

	for iter := 0; iter < iterations; iter++ {
		iterBest := 0.0
		for i, opt := range options {
			score := o.WeightedSumScore(opt, current)
			if i == 0 || score > iterBest {
				iterBest = score
			}
		}

		if !bestSet || iterBest > bestScore+epsilon {
			recorded := make([]float64, len(current))
			copy(recorded, current)
			frontier = append(frontier, WeightedScore{Weights: recorded, Score: iterBest})
			bestScore = iterBest
			bestSet = true
		}

		bias := 1.0
		if len(frontier)%2 == 1 {
			bias = -1.0
		}
		sum := 0.0
		for i := range current {
			if rng.Float64() < 0.5 {
				current[i] += epsilon * bias
			} else {
				current[i] -= epsilon * bias
			}
			sum += current[i]
		}
		if sum > 0 {
			for i := range current {
				current[i] /= sum
			}
		}
	}

	return frontier
}
