package policy

// Policy is an operator-defined action rule set layered under the
// constitution: it can escalate an action's risk tier or deny action types
// outright, but never relaxes constitutional checks.
type Policy struct {
	PolicyID      string   `yaml:"policy_id"`
	PolicyVersion string   `yaml:"policy_version"`
	Defaults      Defaults `yaml:"defaults"`
	Rules         []Rule   `yaml:"rules"`
}

type Defaults struct {
	Risk string `yaml:"risk"`
	Deny bool   `yaml:"deny"`
}

type Rule struct {
	ID     string `yaml:"id"`
	Match  Match  `yaml:"match"`
	Effect Effect `yaml:"effect"`
}

// Match fields are exact matches; an empty field matches anything.
type Match struct {
	ActionType string `yaml:"action_type"`
	Domain     string `yaml:"domain"`
}

type Effect struct {
	Risk   string `yaml:"risk"`
	Deny   *bool  `yaml:"deny"`
	Reason string `yaml:"reason"`
}
