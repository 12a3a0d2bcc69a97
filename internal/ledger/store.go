package ledger

// DecisionRow is the persisted shape of a ledger record. The JSON columns
// hold canonical serializations; PrevHash and CurrHash are raw 32-byte
// SHA-256 digests, and CurrHash carries a unique index so the storage layer
// enforces idempotency as a second line of defense.
type DecisionRow struct {
	DecisionID     int64
	TS             string
	PrevDecisionID *int64
	InputsBundle   []byte
	Objectives     []byte
	Options        []byte
	ChosenAction   []byte
	TestsPassed    []byte
	Approvals      []byte
	Appeals        []byte
	PostHocMetrics []byte
	PrevHash       []byte
	CurrHash       []byte
}

// AppealRow persists a filed appeal alongside the ledger.
type AppealRow struct {
	AppealID   string
	DecisionID int64
	Submitter  string
	Grounds    string
	FiledAt    string
	Status     string
}

// PauseRow records a pause for a scope: "system" or "plan:<id>".
type PauseRow struct {
	Scope    string
	Reason   string
	PausedAt string
}

// ProposalRow persists a high-risk action awaiting human approval.
type ProposalRow struct {
	ProposalID string
	PlanID     string
	ActionJSON []byte
	Status     string
	CreatedAt  string
	DecisionID int64
}

// Store is the record-store abstraction behind the ledger. Append-critical
// operations run inside WithTx; reads outside a transaction are best-effort
// and report absence as a false ok.
type Store interface {
	WithTx(fn func(Tx) error) error

	GetDecision(decisionID int64) (DecisionRow, bool)
	GetDecisionByHash(currHash []byte) (DecisionRow, bool)
	ListDecisions(fromID, toID int64) ([]DecisionRow, error)

	PutAppeal(appeal AppealRow) error
	GetAppeal(appealID string) (AppealRow, bool)
	ListAppeals(decisionID int64) ([]AppealRow, error)

	PutPause(pause PauseRow) error
	GetPause(scope string) (PauseRow, bool)
	ClearPause(scope string) error

	PutProposal(proposal ProposalRow) error
	GetProposal(proposalID string) (ProposalRow, bool)
}

// Tx is the transactional surface used by the serialized append path.
type Tx interface {
	GetDecision(decisionID int64) (DecisionRow, bool)
	GetDecisionByHash(currHash []byte) (DecisionRow, bool)
	InsertDecision(row DecisionRow) (int64, error)
}
