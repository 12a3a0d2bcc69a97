package grade

import (
	"encoding/json"

	"github.com/civium/aegis/internal/ledger"
)

// Result grades the audit quality of one committed decision record.
type Result struct {
	Grade   string
	Reasons []string
}

type Input struct {
	ChainOK  bool
	Decision ledger.Decision
}

type chosenAction struct {
	ActionType string `json:"action_type"`
	Risk       string `json:"risk"`
}

// Evaluate applies the audit heuristics to a decision record. The grade
// reflects record completeness, not the merit of the decision itself.
func Evaluate(in Input) Result {
	if !in.ChainOK {
		return Result{Grade: "F", Reasons: []string{"hash_chain_broken"}}
	}

	var action chosenAction
	_ = json.Unmarshal(in.Decision.ChosenAction, &action)

	missing := map[string]bool{}

	if action.ActionType == "" {
		missing["chosen_action"] = true
	}
	if len(in.Decision.TestsPassed) == 0 {
		missing["tests_passed"] = true
	}
	for _, passed := range in.Decision.TestsPassed {
		if !passed {
			missing["passing_checks"] = true
			break
		}
	}
	if len(in.Decision.Objectives) == 0 {
		missing["objectives"] = true
	}
	if emptyJSON(in.Decision.Options) {
		missing["options_considered"] = true
	}
	if action.Risk == "high" && emptyJSON(in.Decision.Approvals) {
		missing["approval"] = true
	}

	// Heuristic grading.
	grade := "A"
	switch {
	case missing["chosen_action"] || missing["passing_checks"]:
		grade = "F"
	case missing["approval"]:
		grade = "D"
	case missing["tests_passed"] && missing["objectives"]:
		grade = "C"
	case missing["tests_passed"] || missing["objectives"] || missing["options_considered"]:
		grade = "B"
	}

	reasons := []string{}
	for k, v := range missing {
		if v {
			reasons = append(reasons, "missing_"+k)
		}
	}

	return Result{Grade: grade, Reasons: reasons}
}

func emptyJSON(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}
