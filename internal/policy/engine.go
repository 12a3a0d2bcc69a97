package policy

import "github.com/civium/aegis/pkg/types"

const (
	VerdictAllow = "allow"
	VerdictDeny  = "deny"
)

// Decision is the policy evaluation outcome for one action.
type Decision struct {
	Verdict       string   `json:"verdict"`
	Risk          string   `json:"risk,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	MatchedRuleID string   `json:"matched_rule_id,omitempty"`
	ReasonCodes   []string `json:"reason_codes,omitempty"`
	PolicyID      string   `json:"policy_id,omitempty"`
	PolicyVersion string   `json:"policy_version,omitempty"`
	PolicyHash    string   `json:"policy_hash,omitempty"`
}

// Evaluate applies the first matching rule to the action, otherwise defaults.
func Evaluate(p Policy, policyHash string, action types.Action) Decision {
	decision := Decision{
		Verdict:       VerdictAllow,
		Risk:          p.Defaults.Risk,
		PolicyID:      p.PolicyID,
		PolicyVersion: p.PolicyVersion,
		PolicyHash:    policyHash,
	}
	if p.Defaults.Deny {
		decision.Verdict = VerdictDeny
	}

	for _, rule := range p.Rules {
		if !matchRule(rule.Match, action) {
			continue
		}

		decision.MatchedRuleID = rule.ID
		decision.ReasonCodes = append(decision.ReasonCodes, "POLICY_MATCH:"+rule.ID)

		if rule.Effect.Deny != nil {
			if *rule.Effect.Deny {
				decision.Verdict = VerdictDeny
			} else {
				decision.Verdict = VerdictAllow
			}
		}
		if rule.Effect.Risk != "" {
			decision.Risk = rule.Effect.Risk
		}
		if rule.Effect.Reason != "" {
			decision.Reason = rule.Effect.Reason
		}
		return decision
	}

	return decision
}

func matchRule(match Match, action types.Action) bool {
	if match.ActionType != "" && match.ActionType != action.Type {
		return false
	}
	if match.Domain != "" && match.Domain != action.Domain {
		return false
	}
	return true
}
