package constitution

import (
	"strings"
	"testing"

	"github.com/civium/aegis/pkg/types"
)

func testProfile(t *testing.T) *Profile {
	t.Helper()

	p, err := New(Profile{
		Version:           "v0.2",
		AllowedObjectives: []string{"real_wage", "unemployment", "carbon_intensity"},
		AllowedDomains:    []string{"housing", "energy", "transport"},
		MaxBudgetDeltaPct: 5,
		PopulationImpactTiers: Tiers{
			ApprovalPct:   5,
			ReferendumPct: 10,
		},
		WeightProfiles: map[string][]float64{
			"balanced": {0.5, 0.5},
		},
	})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return p
}

func TestValidateWeightVector(t *testing.T) {
	if result := ValidateWeightVector([]float64{0.5, 0.5}); !result.Valid {
		t.Fatalf("expected valid, got %+v", result)
	}

	result := ValidateWeightVector([]float64{0.5, 0.5, 0.1})
	if result.Valid {
		t.Fatal("expected invalid for sum != 1.0")
	}
	if !strings.Contains(strings.Join(result.Errors, " "), "sum to 1.0") {
		t.Fatalf("expected sum error, got %v", result.Errors)
	}

	result = ValidateWeightVector([]float64{1.2, -0.2})
	if result.Valid {
		t.Fatal("expected invalid for out-of-range weights")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected two range errors, got %v", result.Errors)
	}
}

func TestValidateObjectives(t *testing.T) {
	p := testProfile(t)

	if result := p.ValidateObjectives([]string{"real_wage", "unemployment"}); !result.Valid {
		t.Fatalf("expected valid, got %+v", result)
	}

	result := p.ValidateObjectives([]string{"real_wage", "gdp_growth"})
	if result.Valid {
		t.Fatal("expected invalid for disallowed objective")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "gdp_growth") {
		t.Fatalf("expected gdp_growth error, got %v", result.Errors)
	}
}

func TestValidateDomainScope(t *testing.T) {
	p := testProfile(t)

	if result := p.ValidateDomainScope(types.Action{Type: "housing_credits", Domain: "housing"}); !result.Valid {
		t.Fatalf("expected valid, got %+v", result)
	}
	if result := p.ValidateDomainScope(types.Action{Type: "surveillance", Domain: "policing"}); result.Valid {
		t.Fatal("expected invalid for disallowed domain")
	}
}

func TestValidatePopulationImpactTiers(t *testing.T) {
	p := testProfile(t)
	none := types.Authorization{}

	if result := p.ValidatePopulationImpact(3, none); !result.Valid {
		t.Fatalf("3%% should be valid, got %+v", result)
	}

	result := p.ValidatePopulationImpact(6, none)
	if result.Valid {
		t.Fatal("6% without approval should be invalid")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one tier message, got %v", result.Errors)
	}

	result = p.ValidatePopulationImpact(11, none)
	if result.Valid {
		t.Fatal("11% without authorization should be invalid")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected both tier messages, got %v", result.Errors)
	}
}

func TestValidatePopulationImpactAuthorizations(t *testing.T) {
	p := testProfile(t)

	result := p.ValidatePopulationImpact(6, types.Authorization{CouncilApproved: true})
	if !result.Valid {
		t.Fatalf("6%% with council approval should be valid, got %+v", result)
	}

	// Referendum basis alone does not satisfy the lower tier.
	result = p.ValidatePopulationImpact(11, types.Authorization{ReferendumBasis: true})
	if result.Valid {
		t.Fatal("11% with referendum but no council approval should still be invalid")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected only the lower-tier message, got %v", result.Errors)
	}

	result = p.ValidatePopulationImpact(11, types.Authorization{CouncilApproved: true, EmergencyBasis: true})
	if !result.Valid {
		t.Fatalf("11%% with full authorization should be valid, got %+v", result)
	}
}

func TestValidateBudgetImpact(t *testing.T) {
	p := testProfile(t)

	if result := p.ValidateBudgetImpact(-4.5); !result.Valid {
		t.Fatalf("expected valid, got %+v", result)
	}
	if result := p.ValidateBudgetImpact(5.1); result.Valid {
		t.Fatal("expected invalid above cap")
	}
	if result := p.ValidateBudgetImpact(-5.1); result.Valid {
		t.Fatal("expected invalid below negative cap")
	}
}

func TestValidatePlanRunsApplicableChecks(t *testing.T) {
	p := testProfile(t)
	impact := 3.0
	budget := 2.0

	plan := types.Plan{
		PlanID:              "plan-1",
		Weights:             []float64{0.5, 0.5},
		Objectives:          []string{"real_wage"},
		Action:              &types.Action{Type: "housing_credits", Domain: "housing"},
		PopulationImpactPct: &impact,
		BudgetDeltaPct:      &budget,
	}

	report := p.ValidatePlan(plan)
	if !report.Valid {
		t.Fatalf("expected valid plan, got %+v", report)
	}
	if report.ConstitutionVersion != "v0.2" {
		t.Fatalf("expected version v0.2, got %s", report.ConstitutionVersion)
	}
	if len(report.Checks) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(report.Checks))
	}

	tests := report.TestsPassed()
	for name, passed := range tests {
		if !passed {
			t.Fatalf("check %s unexpectedly failed", name)
		}
	}
	if _, ok := tests["weight_validation"]; !ok {
		t.Fatal("missing weight_validation in tests map")
	}
}

func TestValidatePlanAggregatesFailures(t *testing.T) {
	p := testProfile(t)

	plan := types.Plan{
		PlanID:     "plan-2",
		Weights:    []float64{0.7, 0.7},
		Objectives: []string{"real_wage"},
	}

	report := p.ValidatePlan(plan)
	if report.Valid {
		t.Fatal("expected invalid plan")
	}
	check, ok := report.Check("weight_validation")
	if !ok || check.Valid {
		t.Fatalf("expected failing weight check, got %+v", check)
	}
	check, ok = report.Check("objective_validation")
	if !ok || !check.Valid {
		t.Fatalf("expected passing objective check, got %+v", check)
	}
}

func TestValidatePlanMultipleActions(t *testing.T) {
	p := testProfile(t)

	plan := types.Plan{
		Actions: []types.Action{
			{Type: "housing_credits", Domain: "housing"},
			{Type: "tolls", Domain: "policing"},
		},
	}

	report := p.ValidatePlan(plan)
	if report.Valid {
		t.Fatal("expected invalid plan")
	}
	if _, ok := report.Check("action_0_validation"); !ok {
		t.Fatal("missing action_0_validation")
	}
	check, _ := report.Check("action_1_validation")
	if check.Valid {
		t.Fatal("action_1_validation should fail")
	}
}
