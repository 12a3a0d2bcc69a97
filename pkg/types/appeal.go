package types

// AppealStatus tracks an appeal through its external review.
type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealResolved AppealStatus = "resolved"
)

// Appeal is a challenge filed against a committed decision. Filing never
// mutates the challenged record; it pauses the linked plan and adds a new
// ledger entry.
type Appeal struct {
	ID         string       `json:"id"`
	DecisionID int64        `json:"linked_decision_id"`
	Submitter  string       `json:"submitter"`
	Grounds    string       `json:"grounds"`
	FiledAt    string       `json:"filed_at"`
	Status     AppealStatus `json:"status"`
}

// AppealReceipt is returned to the caller when an appeal is accepted.
type AppealReceipt struct {
	AppealID      string `json:"appeal_id"`
	DecisionID    int64  `json:"linked_decision_id"`
	PausedScope   string `json:"paused_scope"`
	LedgerEntryID int64  `json:"ledger_entry_id"`
	FiledAt       string `json:"filed_at"`
}

// Proposal is a high-risk action held for human approval instead of
// auto-execution.
type Proposal struct {
	ProposalID string `json:"proposal_id"`
	PlanID     string `json:"plan_id"`
	Action     Action `json:"action"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	DecisionID int64  `json:"decision_id"`
}
