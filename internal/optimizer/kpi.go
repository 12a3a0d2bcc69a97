package optimizer

import (
	"fmt"
	"sort"
)

// Sense declares whether a KPI is better when larger or smaller.
type Sense string

const (
	SenseMax Sense = "max"
	SenseMin Sense = "min"
)

// KPIMeta declares a KPI's sense and its normalization bounds.
type KPIMeta struct {
	Sense Sense   `json:"sense" yaml:"sense"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

// Meta is an immutable KPI registry with a deterministic name order, so
// weight vectors align with KPIs the same way on every run.
type Meta struct {
	names  []string
	byName map[string]KPIMeta
}

// NewMeta builds a registry from the given KPI definitions. Names are
// ordered lexicographically.
func NewMeta(kpis map[string]KPIMeta) (Meta, error) {
	names := make([]string, 0, len(kpis))
	byName := make(map[string]KPIMeta, len(kpis))
	for name, meta := range kpis {
		if meta.Sense != SenseMax && meta.Sense != SenseMin {
			return Meta{}, fmt.Errorf("kpi %q: unknown sense %q", name, meta.Sense)
		}
		if meta.Max <= meta.Min {
			return Meta{}, fmt.Errorf("kpi %q: max (%g) must exceed min (%g)", name, meta.Max, meta.Min)
		}
		names = append(names, name)
		byName[name] = meta
	}
	sort.Strings(names)
	return Meta{names: names, byName: byName}, nil
}

// DefaultMeta returns the built-in civic KPI registry.
func DefaultMeta() Meta {
	m, err := NewMeta(map[string]KPIMeta{
		"real_wage":        {Sense: SenseMax, Min: 10, Max: 60},
		"unemployment":     {Sense: SenseMin, Min: 0, Max: 20},
		"atkinson_index":   {Sense: SenseMin, Min: 0, Max: 0.6},
		"carbon_intensity": {Sense: SenseMin, Min: 200, Max: 800},
		"reserve_margin":   {Sense: SenseMax, Min: 5, Max: 30},
		"rent_burden":      {Sense: SenseMin, Min: 15, Max: 60},
	})
	if err != nil {
		panic(err)
	}
	return m
}

// Names returns KPI names in registry order.
func (m Meta) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of registered KPIs.
func (m Meta) Len() int { return len(m.names) }

// Lookup returns the metadata for a KPI name.
func (m Meta) Lookup(name string) (KPIMeta, bool) {
	meta, ok := m.byName[name]
	return meta, ok
}
