package assurance

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Status is the outcome of one monitor run. A monitor lacking its required
// inputs reports skipped, never triggered.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusTriggered Status = "triggered"
	StatusSkipped   Status = "skipped"
)

// MonitorResult is the structured outcome of a single tripwire check.
type MonitorResult struct {
	Status  Status             `json:"status"`
	Reason  string             `json:"reason,omitempty"`
	Details map[string]float64 `json:"details,omitempty"`
}

// AppealStats summarizes appeal volume for the appeal-rate monitor.
type AppealStats struct {
	TotalAppeals   int `json:"total_appeals"`
	UpheldAppeals  int `json:"upheld_appeals"`
	PopulationSize int `json:"population_size"`
}

// Snapshot carries the externally supplied metric state a monitor run
// evaluates: historical KPI maps (oldest first), the current KPI map, and
// optional appeal statistics.
type Snapshot struct {
	Historical []map[string]float64 `json:"historical_data"`
	Current    map[string]float64   `json:"current_metrics"`
	Appeals    *AppealStats         `json:"appeal_data,omitempty"`
}

// Thresholds are the tripwire limits. Zero values are not meaningful; use
// DefaultThresholds and override as needed.
type Thresholds struct {
	FairnessRegressionPct float64
	SafetyMarginTarget    float64
	SafetyMarginSlackPct  float64
	OODZScore             float64
	AppealRatePct         float64
	UpheldAppealRatePct   float64
}

// DefaultThresholds returns the constitutional tripwire defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FairnessRegressionPct: 2.0,
		SafetyMarginTarget:    15.0,
		SafetyMarginSlackPct:  3.0,
		OODZScore:             3.0,
		AppealRatePct:         5.0,
		UpheldAppealRatePct:   1.0,
	}
}

// oodKPIs is the fixed KPI set screened for out-of-distribution values.
var oodKPIs = []string{"unemployment", "carbon_intensity", "rent_burden"}

// Monitors runs statistical tripwire checks over metric snapshots. It is
// stateless and safe for concurrent use.
type Monitors struct {
	thresholds Thresholds
}

// New creates a monitor set with the given thresholds.
func New(thresholds Thresholds) *Monitors {
	return &Monitors{thresholds: thresholds}
}

// CheckFairnessRegression trips when the current atkinson_index rises more
// than the threshold percentage above its historical mean.
func (m *Monitors) CheckFairnessRegression(snap Snapshot) MonitorResult {
	current, ok := snap.Current["atkinson_index"]
	if !ok {
		return skipped("no current atkinson_index")
	}

	historical := collect(snap.Historical, "atkinson_index")
	if len(historical) < 2 {
		return skipped("need at least 2 historical data points")
	}

	avg := mean(historical)
	if avg == 0 {
		return skipped("historical atkinson_index mean is zero")
	}

	pctChange := (current - avg) / avg * 100
	details := map[string]float64{
		"current_value":  current,
		"historical_avg": avg,
		"pct_change":     pctChange,
	}

	if pctChange > m.thresholds.FairnessRegressionPct {
		return MonitorResult{
			Status:  StatusTriggered,
			Reason:  fmt.Sprintf("fairness regression detected: %.2f%% increase in atkinson_index", pctChange),
			Details: details,
		}
	}
	return MonitorResult{Status: StatusPassed, Details: details}
}

// CheckSafetyMargin trips when the reserve margin falls below the target
// minus the allowed slack.
func (m *Monitors) CheckSafetyMargin(snap Snapshot) MonitorResult {
	current, ok := snap.Current["reserve_margin"]
	if !ok {
		return skipped("no current reserve_margin")
	}

	floor := m.thresholds.SafetyMarginTarget - m.thresholds.SafetyMarginSlackPct
	details := map[string]float64{
		"current_value": current,
		"target":        m.thresholds.SafetyMarginTarget,
		"floor":         floor,
	}

	if current < floor {
		return MonitorResult{
			Status:  StatusTriggered,
			Reason:  fmt.Sprintf("safety margin breach: %g < %g", current, floor),
			Details: details,
		}
	}
	return MonitorResult{Status: StatusPassed, Details: details}
}

// CheckOOD screens a fixed KPI set for out-of-distribution current values
// using per-KPI z-scores. A KPI is only evaluated when it has at least three
// historical points and nonzero spread.
func (m *Monitors) CheckOOD(snap Snapshot) MonitorResult {
	if len(snap.Current) == 0 {
		return skipped("no current metrics")
	}

	details := map[string]float64{}
	var triggered []string
	evaluated := 0

	for _, kpi := range oodKPIs {
		current, ok := snap.Current[kpi]
		if !ok {
			continue
		}
		historical := collect(snap.Historical, kpi)
		if len(historical) < 3 {
			continue
		}
		sd := stddev(historical)
		if sd == 0 {
			continue
		}

		z := (current - mean(historical)) / sd
		details[kpi] = z
		evaluated++
		if math.Abs(z) > m.thresholds.OODZScore {
			triggered = append(triggered, kpi)
		}
	}

	if evaluated == 0 {
		return skipped("no KPI had enough historical data")
	}
	if len(triggered) > 0 {
		sort.Strings(triggered)
		return MonitorResult{
			Status:  StatusTriggered,
			Reason:  "out-of-distribution KPIs: " + strings.Join(triggered, ", "),
			Details: details,
		}
	}
	return MonitorResult{Status: StatusPassed, Details: details}
}

// CheckAppealRates trips on excessive appeal volume relative to population,
// and on the upheld rate whenever any appeals exist.
func (m *Monitors) CheckAppealRates(snap Snapshot) MonitorResult {
	stats := snap.Appeals
	if stats == nil {
		return skipped("no appeal data")
	}
	if stats.PopulationSize <= 0 {
		return skipped("invalid population size")
	}

	appealRate := float64(stats.TotalAppeals) / float64(stats.PopulationSize) * 100
	details := map[string]float64{"appeal_rate": appealRate}

	var reasons []string
	if appealRate > m.thresholds.AppealRatePct {
		reasons = append(reasons, fmt.Sprintf("appeal rate %.2f%% > %g%%", appealRate, m.thresholds.AppealRatePct))
	}

	if stats.TotalAppeals > 0 {
		upheldRate := float64(stats.UpheldAppeals) / float64(stats.TotalAppeals) * 100
		details["upheld_rate"] = upheldRate
		if upheldRate > m.thresholds.UpheldAppealRatePct {
			reasons = append(reasons, fmt.Sprintf("upheld appeal rate %.2f%% > %g%%", upheldRate, m.thresholds.UpheldAppealRatePct))
		}
	}

	if len(reasons) > 0 {
		return MonitorResult{Status: StatusTriggered, Reason: strings.Join(reasons, "; "), Details: details}
	}
	return MonitorResult{Status: StatusPassed, Details: details}
}

// Report aggregates one full monitor run.
type Report struct {
	Results            map[string]MonitorResult `json:"results"`
	TripwiresTriggered bool                     `json:"tripwires_triggered"`
}

// TriggeredReasons returns the reasons of all triggered monitors in a
// stable order.
func (r Report) TriggeredReasons() []string {
	names := make([]string, 0, len(r.Results))
	for name := range r.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	var reasons []string
	for _, name := range names {
		if result := r.Results[name]; result.Status == StatusTriggered {
			reasons = append(reasons, result.Reason)
		}
	}
	return reasons
}

// RunAll executes every monitor against the snapshot.
func (m *Monitors) RunAll(snap Snapshot) Report {
	results := map[string]MonitorResult{
		"fairness_regression": m.CheckFairnessRegression(snap),
		"safety_margin":       m.CheckSafetyMargin(snap),
		"ood_detection":       m.CheckOOD(snap),
		"appeal_rates":        m.CheckAppealRates(snap),
	}

	triggered := false
	for _, result := range results {
		if result.Status == StatusTriggered {
			triggered = true
			break
		}
	}
	return Report{Results: results, TripwiresTriggered: triggered}
}

func skipped(reason string) MonitorResult {
	return MonitorResult{Status: StatusSkipped, Reason: reason}
}

func collect(historical []map[string]float64, kpi string) []float64 {
	var out []float64
	for _, point := range historical {
		if v, ok := point[kpi]; ok {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	avg := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
