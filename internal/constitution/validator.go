package constitution

import (
	"fmt"
	"math"

	"github.com/civium/aegis/pkg/types"
)

const weightSumTolerance = 1e-6

// CheckResult is the outcome of one constitutional sub-check.
type CheckResult struct {
	Name   string   `json:"name"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// PlanReport aggregates every sub-check executed against a plan, plus the
// constitution version used, for audit traceability.
type PlanReport struct {
	Valid               bool          `json:"valid"`
	Checks              []CheckResult `json:"checks"`
	ConstitutionVersion string        `json:"constitution_version"`
}

// Check returns the named sub-check result, if it was executed.
func (r PlanReport) Check(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// TestsPassed flattens the report into the per-check pass map recorded in
// the ledger.
func (r PlanReport) TestsPassed() map[string]bool {
	out := make(map[string]bool, len(r.Checks))
	for _, c := range r.Checks {
		out[c.Name] = c.Valid
	}
	return out
}

// ValidateWeightVector checks that weights sum to 1.0 within tolerance and
// that each weight lies in [0,1].
func ValidateWeightVector(weights []float64) CheckResult {
	result := CheckResult{Name: "weight_validation", Valid: true}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) >= weightSumTolerance {
		result.Valid = false
		result.Errors = append(result.Errors, "weight vector must sum to 1.0")
	}
	for i, w := range weights {
		if w < 0 || w > 1 {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("weight %d must be between 0 and 1", i))
		}
	}
	return result
}

// ValidateObjectives checks that every objective is permitted by the profile.
func (p *Profile) ValidateObjectives(objectives []string) CheckResult {
	result := CheckResult{Name: "objective_validation", Valid: true}
	for _, obj := range objectives {
		if !p.ObjectiveAllowed(obj) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("objective %q is not allowed by constitution", obj))
		}
	}
	return result
}

// ValidateDomainScope checks that an action's domain is permitted.
func (p *Profile) ValidateDomainScope(action types.Action) CheckResult {
	if !p.DomainAllowed(action.Domain) {
		return CheckResult{
			Name:   "domain_validation",
			Errors: []string{fmt.Sprintf("domain %q is not allowed by constitution", action.Domain)},
		}
	}
	return CheckResult{Name: "domain_validation", Valid: true}
}

// ValidatePopulationImpact applies the two escalating impact tiers. A breach
// of a tier is invalid until the corresponding authorization is attached:
// council approval for the lower tier, referendum or emergency basis for the
// upper. Both tiers are reported independently.
func (p *Profile) ValidatePopulationImpact(impactPct float64, auth types.Authorization) CheckResult {
	result := CheckResult{Name: "population_validation", Valid: true}
	tiers := p.PopulationImpactTiers

	if impactPct > tiers.ApprovalPct && !auth.CouncilApproved {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("population impact >%g%% requires human council approval", tiers.ApprovalPct))
	}
	if impactPct > tiers.ReferendumPct && !auth.ReferendumBasis && !auth.EmergencyBasis {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("population impact >%g%% requires referendum or emergency basis", tiers.ReferendumPct))
	}
	return result
}

// ValidateBudgetImpact checks the absolute budget delta against the cap.
func (p *Profile) ValidateBudgetImpact(deltaPct float64) CheckResult {
	if math.Abs(deltaPct) > p.MaxBudgetDeltaPct {
		return CheckResult{
			Name: "budget_validation",
			Errors: []string{fmt.Sprintf("budget delta %g%% exceeds limit of ±%g%%",
				deltaPct, p.MaxBudgetDeltaPct)},
		}
	}
	return CheckResult{Name: "budget_validation", Valid: true}
}

// ValidatePlan runs every sub-check applicable to the fields present on the
// plan. The plan is valid iff all executed sub-checks are valid.
func (p *Profile) ValidatePlan(plan types.Plan) PlanReport {
	report := PlanReport{Valid: true, ConstitutionVersion: p.Version}

	add := func(c CheckResult) {
		report.Checks = append(report.Checks, c)
		if !c.Valid {
			report.Valid = false
		}
	}

	if plan.Weights != nil {
		add(ValidateWeightVector(plan.Weights))
	}
	if plan.Objectives != nil {
		add(p.ValidateObjectives(plan.Objectives))
	}
	switch {
	case plan.Action != nil:
		add(p.ValidateDomainScope(*plan.Action))
	case len(plan.Actions) > 0:
		for i, action := range plan.Actions {
			c := p.ValidateDomainScope(action)
			c.Name = fmt.Sprintf("action_%d_validation", i)
			add(c)
		}
	}
	if plan.PopulationImpactPct != nil {
		add(p.ValidatePopulationImpact(*plan.PopulationImpactPct, plan.Authorization))
	}
	if plan.BudgetDeltaPct != nil {
		add(p.ValidateBudgetImpact(*plan.BudgetDeltaPct))
	}

	return report
}
