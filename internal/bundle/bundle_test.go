package bundle

import (
	"bytes"
	"strings"
	"testing"

	"github.com/civium/aegis/pkg/types"
)

func TestBuildIsDeterministic(t *testing.T) {
	impact := 4.2
	plan := types.Plan{
		PlanID:              "plan-1",
		Weights:             []float64{0.5, 0.5},
		Objectives:          []string{"real_wage", "unemployment"},
		PopulationImpactPct: &impact,
	}

	first, firstID, err := Build(plan)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, secondID, err := Build(plan)
	if err != nil {
		t.Fatalf("build again: %v", err)
	}

	if !bytes.Equal(first, second) || firstID != secondID {
		t.Fatalf("expected identical bundles, got %s vs %s", firstID, secondID)
	}
	if !strings.HasPrefix(firstID, "sha256:") {
		t.Fatalf("bundle id: %s", firstID)
	}
	if !strings.Contains(string(first), `"schema":"aegis.inputs.v1"`) {
		t.Fatalf("bundle missing schema: %s", first)
	}
}

func TestBuildOmitsAbsentFields(t *testing.T) {
	raw, _, err := Build(types.Plan{PlanID: "plan-2"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, field := range []string{"weights", "objectives", "population_impact_pct", "budget_delta_pct"} {
		if strings.Contains(string(raw), field) {
			t.Fatalf("unexpected %s in %s", field, raw)
		}
	}
}

func TestBuildDistinguishesPlans(t *testing.T) {
	_, a, err := Build(types.Plan{PlanID: "plan-a"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, b, err := Build(types.Plan{PlanID: "plan-b"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if a == b {
		t.Fatalf("distinct plans share bundle id %s", a)
	}
}
