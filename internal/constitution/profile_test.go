package constitution

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleProfileYAML = `version: v0.2
allowed_objectives:
  - real_wage
  - unemployment
  - atkinson_index
allowed_domains:
  - housing
  - energy
max_budget_delta_pct: 5
population_impact_tiers:
  approval_pct: 5
  referendum_pct: 10
weight_profiles:
  balanced: [0.5, 0.5]
  equity_first: [0.25, 0.75]
`

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "constitution.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	p, err := Load(writeProfile(t, sampleProfileYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Version != "v0.2" {
		t.Fatalf("expected version v0.2, got %s", p.Version)
	}
	if !p.ObjectiveAllowed("real_wage") || p.ObjectiveAllowed("gdp_growth") {
		t.Fatal("objective lookup mismatch")
	}
	if !p.DomainAllowed("housing") || p.DomainAllowed("policing") {
		t.Fatal("domain lookup mismatch")
	}
	if w, ok := p.WeightProfile("equity_first"); !ok || w[1] != 0.75 {
		t.Fatalf("weight profile mismatch: %v %v", w, ok)
	}
}

func TestLoadProfileRejectsBrokenWeightProfile(t *testing.T) {
	broken := sampleProfileYAML + "  broken: [0.9, 0.9]\n"
	_, err := Load(writeProfile(t, broken))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateProfileInvariants(t *testing.T) {
	base := Profile{
		Version:               "v1",
		AllowedObjectives:     []string{"real_wage"},
		AllowedDomains:        []string{"housing"},
		MaxBudgetDeltaPct:     5,
		PopulationImpactTiers: Tiers{ApprovalPct: 5, ReferendumPct: 10},
	}

	cases := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"missing version", func(p *Profile) { p.Version = "" }},
		{"no objectives", func(p *Profile) { p.AllowedObjectives = nil }},
		{"no domains", func(p *Profile) { p.AllowedDomains = nil }},
		{"zero budget cap", func(p *Profile) { p.MaxBudgetDeltaPct = 0 }},
		{"inverted tiers", func(p *Profile) { p.PopulationImpactTiers = Tiers{ApprovalPct: 10, ReferendumPct: 5} }},
		{"zero tier", func(p *Profile) { p.PopulationImpactTiers.ApprovalPct = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			if _, err := New(p); !errors.Is(err, ErrConfigInvalid) {
				t.Fatalf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}

	if _, err := New(base); err != nil {
		t.Fatalf("base profile should validate: %v", err)
	}
}

func TestStoreSwap(t *testing.T) {
	p1, err := New(Profile{
		Version:               "v1",
		AllowedObjectives:     []string{"real_wage"},
		AllowedDomains:        []string{"housing"},
		MaxBudgetDeltaPct:     5,
		PopulationImpactTiers: Tiers{ApprovalPct: 5, ReferendumPct: 10},
	})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	p2 := *p1
	p2.Version = "v2"

	store := NewStore(p1)
	if store.Current().Version != "v1" {
		t.Fatalf("expected v1, got %s", store.Current().Version)
	}

	old := store.Swap(&p2)
	if old.Version != "v1" {
		t.Fatalf("expected swapped-out v1, got %s", old.Version)
	}
	if store.Current().Version != "v2" {
		t.Fatalf("expected v2, got %s", store.Current().Version)
	}
}
