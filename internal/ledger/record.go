package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/civium/aegis/internal/crypto"
)

// CandidateRecord is the append input. Free-form components (inputs bundle,
// options, chosen action) are plain JSON-shaped values — maps, slices,
// scalars — so they canonicalize deterministically.
type CandidateRecord struct {
	PrevDecisionID *int64
	InputsBundle   any
	Objectives     map[string]float64
	Options        []any
	ChosenAction   any
	TestsPassed    map[string]bool
	Approvals      any
	Appeals        any
	PostHocMetrics any
}

// Decision is a committed ledger record as returned to callers.
type Decision struct {
	DecisionID     int64              `json:"decision_id"`
	Timestamp      string             `json:"timestamp"`
	PrevDecisionID *int64             `json:"prev_decision_id,omitempty"`
	InputsBundle   json.RawMessage    `json:"inputs_bundle"`
	Objectives     map[string]float64 `json:"objectives"`
	Options        json.RawMessage    `json:"options_considered"`
	ChosenAction   json.RawMessage    `json:"chosen_action"`
	TestsPassed    map[string]bool    `json:"tests_passed"`
	Approvals      json.RawMessage    `json:"approvals,omitempty"`
	Appeals        json.RawMessage    `json:"appeals,omitempty"`
	PostHocMetrics json.RawMessage    `json:"post_hoc_metrics,omitempty"`
	PrevHash       []byte             `json:"prev_hash,omitempty"`
	CurrHash       []byte             `json:"curr_hash"`
}

// canonicalParts holds the canonical serialization of every hashed
// component, in hash order.
type canonicalParts struct {
	inputsBundle []byte
	objectives   []byte
	options      []byte
	chosenAction []byte
	testsPassed  []byte
}

func canonicalize(rec CandidateRecord) (canonicalParts, error) {
	var parts canonicalParts
	var err error

	if parts.inputsBundle, err = canonicalComponent("inputs_bundle", rec.InputsBundle); err != nil {
		return canonicalParts{}, err
	}
	if parts.objectives, err = canonicalComponent("objectives", rec.Objectives); err != nil {
		return canonicalParts{}, err
	}
	if parts.options, err = canonicalComponent("options_considered", rec.Options); err != nil {
		return canonicalParts{}, err
	}
	if parts.chosenAction, err = canonicalComponent("chosen_action", rec.ChosenAction); err != nil {
		return canonicalParts{}, err
	}
	if parts.testsPassed, err = canonicalComponent("tests_passed", rec.TestsPassed); err != nil {
		return canonicalParts{}, err
	}
	return parts, nil
}

func canonicalComponent(name string, v any) ([]byte, error) {
	var out []byte
	var err error
	if raw, ok := v.(json.RawMessage); ok {
		out, err = crypto.CanonicalizeJSON(raw)
	} else {
		out, err = crypto.Canonicalize(v)
	}
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w", name, err)
	}
	return out, nil
}

func decodeRow(row DecisionRow) (Decision, error) {
	d := Decision{
		DecisionID:     row.DecisionID,
		Timestamp:      row.TS,
		PrevDecisionID: row.PrevDecisionID,
		InputsBundle:   json.RawMessage(row.InputsBundle),
		Options:        json.RawMessage(row.Options),
		ChosenAction:   json.RawMessage(row.ChosenAction),
		Approvals:      json.RawMessage(row.Approvals),
		Appeals:        json.RawMessage(row.Appeals),
		PostHocMetrics: json.RawMessage(row.PostHocMetrics),
		PrevHash:       row.PrevHash,
		CurrHash:       row.CurrHash,
	}
	if err := json.Unmarshal(row.Objectives, &d.Objectives); err != nil {
		return Decision{}, fmt.Errorf("decode objectives: %w", err)
	}
	if err := json.Unmarshal(row.TestsPassed, &d.TestsPassed); err != nil {
		return Decision{}, fmt.Errorf("decode tests_passed: %w", err)
	}
	return d, nil
}
