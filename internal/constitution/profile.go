package constitution

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tiers are the population-impact escalation thresholds. Impact above
// ApprovalPct requires council approval; above ReferendumPct it additionally
// requires a referendum or emergency basis.
type Tiers struct {
	ApprovalPct   float64 `yaml:"approval_pct" json:"approval_pct"`
	ReferendumPct float64 `yaml:"referendum_pct" json:"referendum_pct"`
}

// Profile is an immutable, versioned constitutional rule set. It is loaded
// once at startup and only ever replaced wholesale via Store.Swap.
type Profile struct {
	Version               string               `yaml:"version" json:"version"`
	AllowedObjectives     []string             `yaml:"allowed_objectives" json:"allowed_objectives"`
	AllowedDomains        []string             `yaml:"allowed_domains" json:"allowed_domains"`
	MaxBudgetDeltaPct     float64              `yaml:"max_budget_delta_pct" json:"max_budget_delta_pct"`
	PopulationImpactTiers Tiers                `yaml:"population_impact_tiers" json:"population_impact_tiers"`
	WeightProfiles        map[string][]float64 `yaml:"weight_profiles" json:"weight_profiles"`

	objectives map[string]struct{}
	domains    map[string]struct{}
}

// Load reads and validates a profile from a YAML file. Environment variables
// in the file are expanded before parsing.
func Load(path string) (*Profile, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var p Profile
	if err := yaml.Unmarshal([]byte(expanded), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.index()
	return &p, nil
}

// New validates a programmatically constructed profile and prepares its
// lookup indexes.
func New(p Profile) (*Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.index()
	return &p, nil
}

// Validate enforces the startup invariants. A process must not serve traffic
// with a profile that fails here.
func (p *Profile) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("%w: version is required", ErrConfigInvalid)
	}
	if len(p.AllowedObjectives) == 0 {
		return fmt.Errorf("%w: allowed_objectives must not be empty", ErrConfigInvalid)
	}
	if len(p.AllowedDomains) == 0 {
		return fmt.Errorf("%w: allowed_domains must not be empty", ErrConfigInvalid)
	}
	if p.MaxBudgetDeltaPct <= 0 {
		return fmt.Errorf("%w: max_budget_delta_pct must be positive", ErrConfigInvalid)
	}
	t := p.PopulationImpactTiers
	if t.ApprovalPct <= 0 || t.ReferendumPct <= 0 {
		return fmt.Errorf("%w: population_impact_tiers must be positive", ErrConfigInvalid)
	}
	if t.ApprovalPct >= t.ReferendumPct {
		return fmt.Errorf("%w: approval_pct (%v) must be below referendum_pct (%v)",
			ErrConfigInvalid, t.ApprovalPct, t.ReferendumPct)
	}
	for name, weights := range p.WeightProfiles {
		if result := ValidateWeightVector(weights); !result.Valid {
			return fmt.Errorf("%w: weight profile %q: %s",
				ErrConfigInvalid, name, strings.Join(result.Errors, "; "))
		}
	}
	return nil
}

func (p *Profile) index() {
	p.objectives = make(map[string]struct{}, len(p.AllowedObjectives))
	for _, o := range p.AllowedObjectives {
		p.objectives[o] = struct{}{}
	}
	p.domains = make(map[string]struct{}, len(p.AllowedDomains))
	for _, d := range p.AllowedDomains {
		p.domains[d] = struct{}{}
	}
}

// ObjectiveAllowed reports whether the profile permits the named objective.
func (p *Profile) ObjectiveAllowed(name string) bool {
	if p.objectives == nil {
		p.index()
	}
	_, ok := p.objectives[name]
	return ok
}

// DomainAllowed reports whether the profile permits the named domain.
func (p *Profile) DomainAllowed(name string) bool {
	if p.domains == nil {
		p.index()
	}
	_, ok := p.domains[name]
	return ok
}

// WeightProfile returns the named weight profile, if present.
func (p *Profile) WeightProfile(name string) ([]float64, bool) {
	w, ok := p.WeightProfiles[name]
	return w, ok
}
