package grade

import (
	"encoding/json"
	"testing"

	"github.com/civium/aegis/internal/ledger"
)

func completeDecision() ledger.Decision {
	return ledger.Decision{
		DecisionID:   1,
		ChosenAction: json.RawMessage(`{"action_type":"adjust_transit_frequency","domain":"transit","risk":"low"}`),
		Options:      json.RawMessage(`[{"option_id":"opt-1"}]`),
		Objectives:   map[string]float64{"real_wage": 0.5},
		TestsPassed:  map[string]bool{"domain_validation": true},
	}
}

func TestEvaluateCompleteRecord(t *testing.T) {
	res := Evaluate(Input{ChainOK: true, Decision: completeDecision()})
	if res.Grade != "A" {
		t.Fatalf("grade = %s, reasons = %v", res.Grade, res.Reasons)
	}
	if len(res.Reasons) != 0 {
		t.Fatalf("unexpected reasons: %v", res.Reasons)
	}
}

func TestEvaluateBrokenChain(t *testing.T) {
	res := Evaluate(Input{ChainOK: false, Decision: completeDecision()})
	if res.Grade != "F" || len(res.Reasons) != 1 || res.Reasons[0] != "hash_chain_broken" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestEvaluateFailingCheck(t *testing.T) {
	d := completeDecision()
	d.TestsPassed["budget_delta"] = false
	res := Evaluate(Input{ChainOK: true, Decision: d})
	if res.Grade != "F" {
		t.Fatalf("grade = %s", res.Grade)
	}
	if !hasReason(res, "missing_passing_checks") {
		t.Fatalf("reasons = %v", res.Reasons)
	}
}

func TestEvaluateMissingAction(t *testing.T) {
	d := completeDecision()
	d.ChosenAction = json.RawMessage(`{}`)
	if res := Evaluate(Input{ChainOK: true, Decision: d}); res.Grade != "F" {
		t.Fatalf("grade = %s", res.Grade)
	}
}

func TestEvaluateHighRiskWithoutApproval(t *testing.T) {
	d := completeDecision()
	d.ChosenAction = json.RawMessage(`{"action_type":"modify_housing_zoning","risk":"high"}`)
	res := Evaluate(Input{ChainOK: true, Decision: d})
	if res.Grade != "D" || !hasReason(res, "missing_approval") {
		t.Fatalf("unexpected result: %+v", res)
	}

	d.Approvals = json.RawMessage(`{"approved_by":"operator"}`)
	if res := Evaluate(Input{ChainOK: true, Decision: d}); res.Grade != "A" {
		t.Fatalf("approved record: %+v", res)
	}
}

func TestEvaluatePartialRecords(t *testing.T) {
	d := completeDecision()
	d.Options = json.RawMessage(`[]`)
	if res := Evaluate(Input{ChainOK: true, Decision: d}); res.Grade != "B" {
		t.Fatalf("missing options: %+v", res)
	}

	d = completeDecision()
	d.TestsPassed = nil
	d.Objectives = nil
	res := Evaluate(Input{ChainOK: true, Decision: d})
	if res.Grade != "C" {
		t.Fatalf("bare record: %+v", res)
	}
	if !hasReason(res, "missing_tests_passed") || !hasReason(res, "missing_objectives") {
		t.Fatalf("reasons = %v", res.Reasons)
	}
}

func hasReason(res Result, want string) bool {
	for _, r := range res.Reasons {
		if r == want {
			return true
		}
	}
	return false
}
