package types

import "encoding/json"

// RiskTier classifies how a validated action is committed: low-risk actions
// auto-execute, high-risk actions become proposals awaiting human approval.
type RiskTier string

const (
	RiskLow  RiskTier = "low"
	RiskHigh RiskTier = "high"
)

// Action is one candidate intervention a plan may carry.
type Action struct {
	Type   string             `json:"action_type"`
	Domain string             `json:"domain"`
	Risk   RiskTier           `json:"risk,omitempty"`
	Params map[string]float64 `json:"params,omitempty"`
}

// Authorization records the human authorizations attached to a plan.
// Population-impact tier checks are conditioned on these.
type Authorization struct {
	CouncilApproved bool   `json:"council_approved"`
	ReferendumBasis bool   `json:"referendum_basis"`
	EmergencyBasis  bool   `json:"emergency_basis"`
	ApprovedBy      string `json:"approved_by,omitempty"`
}

// Option is one candidate outcome scored by the optimizer. Values holds raw
// objective values keyed by KPI name.
type Option struct {
	ActionType string             `json:"action_type"`
	Values     map[string]float64 `json:"raw_objective_values"`
}

// Plan is the validated ingestion boundary for a planning cycle. Optional
// fields are pointers; a sub-check only runs when its field is present.
type Plan struct {
	PlanID              string          `json:"plan_id"`
	Weights             []float64       `json:"weights,omitempty"`
	Objectives          []string        `json:"objectives,omitempty"`
	Action              *Action         `json:"action,omitempty"`
	Actions             []Action        `json:"actions,omitempty"`
	Options             []Option        `json:"options,omitempty"`
	PopulationImpactPct *float64        `json:"population_impact_pct,omitempty"`
	BudgetDeltaPct      *float64        `json:"budget_delta_pct,omitempty"`
	Authorization       Authorization   `json:"authorization"`
	InputsBundle        json.RawMessage `json:"inputs_bundle,omitempty"`
	PrevDecisionID      *int64          `json:"prev_decision_id,omitempty"`
}
