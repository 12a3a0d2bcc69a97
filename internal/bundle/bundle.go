package bundle

import (
	"encoding/json"

	"github.com/civium/aegis/internal/crypto"
	"github.com/civium/aegis/pkg/types"
)

const Schema = "aegis.inputs.v1"

// View assembles the default inputs-bundle view for a plan that did not
// submit one. It is deterministic in the plan's fields, so identical plans
// replay idempotently.
func View(plan types.Plan) map[string]any {
	view := map[string]any{
		"schema":  Schema,
		"plan_id": plan.PlanID,
	}
	if len(plan.Objectives) > 0 {
		view["objectives"] = plan.Objectives
	}
	if len(plan.Weights) > 0 {
		view["weights"] = plan.Weights
	}
	if plan.PopulationImpactPct != nil {
		view["population_impact_pct"] = *plan.PopulationImpactPct
	}
	if plan.BudgetDeltaPct != nil {
		view["budget_delta_pct"] = *plan.BudgetDeltaPct
	}
	return view
}

// Build canonicalizes the bundle view and computes its content-addressed id.
func Build(plan types.Plan) (json.RawMessage, string, error) {
	canonical, err := crypto.Canonicalize(View(plan))
	if err != nil {
		return nil, "", err
	}
	return json.RawMessage(canonical), "sha256:" + crypto.DigestHex(canonical), nil
}
