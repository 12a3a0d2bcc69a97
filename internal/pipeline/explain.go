package pipeline

import (
	"github.com/civium/aegis/internal/optimizer"
	"github.com/civium/aegis/pkg/types"
)

// Tradeoff is one scored alternative in a decision explanation.
type Tradeoff struct {
	ActionType string  `json:"action_type"`
	Score      float64 `json:"score"`
	Chosen     bool    `json:"chosen"`
}

// Explanation describes why the pipeline picked what it picked: the scoring
// method, the weight vector and KPI order it was applied against, and every
// alternative with its collapsed score.
type Explanation struct {
	Method    string     `json:"method"`
	Weights   []float64  `json:"weights,omitempty"`
	KPIOrder  []string   `json:"kpi_order"`
	Tradeoffs []Tradeoff `json:"tradeoffs"`
}

func (p *Pipeline) explain(plan types.Plan, chosen optimizer.ScoredOption) *Explanation {
	scored := p.Optimizer.ScoreAll(plan.Options, plan.Weights)

	tradeoffs := make([]Tradeoff, 0, len(scored))
	marked := false
	for _, s := range scored {
		isChosen := !marked && s.ActionType == chosen.ActionType && s.NormalizedScore == chosen.NormalizedScore
		if isChosen {
			marked = true
		}
		tradeoffs = append(tradeoffs, Tradeoff{
			ActionType: s.ActionType,
			Score:      s.NormalizedScore,
			Chosen:     isChosen,
		})
	}

	return &Explanation{
		Method:    "weighted_sum",
		Weights:   plan.Weights,
		KPIOrder:  p.Optimizer.Meta().Names(),
		Tradeoffs: tradeoffs,
	}
}
