package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/civium/aegis/internal/assurance"
	"github.com/civium/aegis/internal/bundle"
	"github.com/civium/aegis/internal/constitution"
	"github.com/civium/aegis/internal/ledger"
	"github.com/civium/aegis/internal/notify"
	"github.com/civium/aegis/internal/optimizer"
	"github.com/civium/aegis/internal/policy"
	"github.com/civium/aegis/pkg/types"
)

// State names a position in the planning state machine.
type State string

const (
	StateReceived        State = "received"
	StateValidating      State = "validating"
	StateInvalid         State = "invalid"
	StateOptimizing      State = "optimizing"
	StateMonitoring      State = "monitoring"
	StatePaused          State = "paused"
	StateCommitting      State = "committing"
	StateExecuted        State = "executed"
	StatePendingApproval State = "pending_approval"
	StatePausedForAppeal State = "paused_for_appeal"
)

// Result statuses. Invalid and paused are normal terminal outcomes, not
// errors; error is reserved for ledger faults and collaborator failures.
const (
	StatusInvalid  = "invalid"
	StatusPaused   = "paused"
	StatusProposed = "proposed"
	StatusExecuted = "executed"
	StatusError    = "error"
)

// ScopeSystem is the pause scope covering all automated planning.
const ScopeSystem = "system"

// PlanScope is the pause scope covering a single decision's plan.
func PlanScope(decisionID int64) string {
	return fmt.Sprintf("plan:%d", decisionID)
}

// MetricsProvider supplies the metric snapshot the assurance monitors
// evaluate before a decision is committed.
type MetricsProvider interface {
	Snapshot(ctx context.Context, plan types.Plan) (assurance.Snapshot, error)
}

// Executor carries out a committed low-risk action. Effects are external;
// the pipeline only records the outcome.
type Executor interface {
	Execute(ctx context.Context, action types.Action) error
}

// Result is the full diagnostic outcome of a pipeline run. Status is the
// caller-facing discriminator; the remaining fields explain it.
type Result struct {
	Status      string                   `json:"status"`
	State       State                    `json:"state"`
	PlanID      string                   `json:"plan_id,omitempty"`
	Validation  *constitution.PlanReport `json:"validation,omitempty"`
	Policy      *policy.Decision         `json:"policy,omitempty"`
	Monitoring  *assurance.PauseOutcome  `json:"monitoring,omitempty"`
	Chosen      *optimizer.ScoredOption  `json:"chosen,omitempty"`
	Explanation *Explanation             `json:"explanation,omitempty"`
	DecisionID  int64                    `json:"decision_id,omitempty"`
	CurrHash    []byte                   `json:"curr_hash,omitempty"`
	Proposal    *types.Proposal          `json:"proposal,omitempty"`
	PauseScope  string                   `json:"pause_scope,omitempty"`
	PauseReason string                   `json:"pause_reason,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// Pipeline sequences validate, optimize, monitor, and commit over the
// kernel components. Validator, optimizer, and monitors are stateless; the
// ledger serializes its own appends, so concurrent runs are safe.
type Pipeline struct {
	Constitution *constitution.Store
	Optimizer    *optimizer.Optimizer
	Monitors     *assurance.Monitors
	Ledger       *ledger.Ledger
	Policy       *policy.LoadedPolicy
	Metrics      MetricsProvider
	Executor     Executor
	Notifier     notify.Sink
	Logger       *log.Logger

	now   func() time.Time
	newID func() string
}

// New validates the wiring and fills in defaults for the clock, id source,
// notifier, and logger.
func New(p Pipeline) (*Pipeline, error) {
	if p.Constitution == nil {
		return nil, fmt.Errorf("missing constitution store")
	}
	if p.Optimizer == nil {
		return nil, fmt.Errorf("missing optimizer")
	}
	if p.Monitors == nil {
		return nil, fmt.Errorf("missing monitors")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("missing ledger")
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.Notifier == nil {
		p.Notifier = notify.LogSink{Logger: p.Logger}
	}
	if p.Logger == nil {
		p.Logger = log.Default()
	}
	return &p, nil
}

// WithClock overrides the timestamp source. Tests use this for stable runs.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// WithIDSource overrides the uuid source.
func (p *Pipeline) WithIDSource(newID func() string) *Pipeline {
	p.newID = newID
	return p
}

// Pause marks a scope paused. It satisfies the assurance pause contract;
// resuming is a human action via Resume.
func (p *Pipeline) Pause(ctx context.Context, scope, reason string, pausedAt time.Time) error {
	return p.Ledger.Store().PutPause(ledger.PauseRow{
		Scope:    scope,
		Reason:   reason,
		PausedAt: pausedAt.UTC().Format(time.RFC3339),
	})
}

// Resume clears a pause scope.
func (p *Pipeline) Resume(ctx context.Context, scope string) error {
	return p.Ledger.Store().ClearPause(scope)
}

// PausedScope returns the first pause covering a plan: the system scope
// wins over the plan scope.
func (p *Pipeline) PausedScope(planScope string) (ledger.PauseRow, bool) {
	if pause, ok := p.Ledger.Store().GetPause(ScopeSystem); ok {
		return pause, true
	}
	if planScope != "" {
		if pause, ok := p.Ledger.Store().GetPause(planScope); ok {
			return pause, true
		}
	}
	return ledger.PauseRow{}, false
}

// RunPlanningCycle drives a plan through the full state machine. Invalid
// plans and tripwire pauses are normal terminal results; only ledger faults
// and collaborator failures return a non-nil error.
func (p *Pipeline) RunPlanningCycle(ctx context.Context, plan types.Plan) (Result, error) {
	result := Result{PlanID: plan.PlanID, State: StateReceived}

	var planScope string
	if plan.PrevDecisionID != nil {
		planScope = PlanScope(*plan.PrevDecisionID)
	}
	if pause, ok := p.PausedScope(planScope); ok {
		result.Status = StatusPaused
		result.State = StatePaused
		if pause.Scope != ScopeSystem {
			result.State = StatePausedForAppeal
		}
		result.PauseScope = pause.Scope
		result.PauseReason = pause.Reason
		return result, nil
	}

	// Validating.
	result.State = StateValidating
	profile := p.Constitution.Current()
	report := profile.ValidatePlan(plan)
	result.Validation = &report
	if !report.Valid {
		result.Status = StatusInvalid
		result.State = StateInvalid
		return result, nil
	}

	// Optimizing.
	result.State = StateOptimizing
	var chosen *optimizer.ScoredOption
	if len(plan.Options) > 0 {
		best, ok := p.Optimizer.SelectBest(plan.Options, plan.Weights)
		if ok {
			chosen = &best
			result.Chosen = chosen
			result.Explanation = p.explain(plan, best)
		}
	}

	// Monitoring.
	result.State = StateMonitoring
	if p.Metrics != nil {
		snap, err := p.Metrics.Snapshot(ctx, plan)
		if err != nil {
			result.Status = StatusError
			result.Error = err.Error()
			return result, &CollaboratorError{Collaborator: "metrics", Err: err}
		}

		pauser := &assurance.AutoPauser{Monitors: p.Monitors, Pauser: p, Recorder: p.Ledger, Clock: p.now}
		outcome, err := pauser.AutoPauseIfNeeded(ctx, ScopeSystem, snap)
		if err != nil {
			result.Status = StatusError
			result.Error = err.Error()
			return result, err
		}
		result.Monitoring = &outcome
		if outcome.State == assurance.StatePaused {
			result.Status = StatusPaused
			result.State = StatePaused
			result.PauseScope = ScopeSystem
			result.PauseReason = outcome.Reason
			p.notifyEvent(ctx, notify.Event{
				Kind:       notify.KindAutoPause,
				Scope:      ScopeSystem,
				Reason:     outcome.Reason,
				DecisionID: outcome.LedgerEntryID,
				OccurredAt: p.now().UTC().Format(time.RFC3339),
			})
			return result, nil
		}
	}

	// Committing.
	result.State = StateCommitting
	action := p.resolveAction(plan, chosen)

	if p.Policy != nil {
		verdict := policy.Evaluate(p.Policy.Policy, p.Policy.Hash, action)
		result.Policy = &verdict
		if verdict.Verdict == policy.VerdictDeny {
			result.Status = StatusInvalid
			result.State = StateInvalid
			return result, nil
		}
		if verdict.Risk == string(types.RiskHigh) {
			action.Risk = types.RiskHigh
		}
	}

	risk := p.assessRisk(profile, plan, action)

	appendRes, err := p.Ledger.Append(ctx, p.candidateRecord(plan, report, chosen, action))
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		return result, err
	}
	result.DecisionID = appendRes.DecisionID
	result.CurrHash = appendRes.CurrHash

	if risk == types.RiskHigh {
		proposal, err := p.createProposal(ctx, plan.PlanID, action, appendRes.DecisionID)
		if err != nil {
			result.Status = StatusError
			result.Error = err.Error()
			return result, err
		}
		result.Proposal = &proposal
		result.Status = StatusProposed
		result.State = StatePendingApproval
		return result, nil
	}

	if p.Executor != nil {
		if err := p.Executor.Execute(ctx, action); err != nil {
			// The decision is committed; only the external effect failed.
			result.Status = StatusError
			result.Error = err.Error()
			return result, &CollaboratorError{Collaborator: "executor", Err: err}
		}
	}
	result.Status = StatusExecuted
	result.State = StateExecuted
	return result, nil
}

// ExecuteLowRiskAction commits and executes a single action outside a full
// planning cycle. The action's domain is still validated.
func (p *Pipeline) ExecuteLowRiskAction(ctx context.Context, action types.Action) (Result, error) {
	plan := types.Plan{PlanID: p.newID(), Action: &action}
	return p.RunPlanningCycle(ctx, plan)
}

// ProposeHighRiskAction commits a decision entry for the action and holds
// it as a proposal awaiting human approval. Nothing is executed.
func (p *Pipeline) ProposeHighRiskAction(ctx context.Context, planID string, action types.Action) (types.Proposal, error) {
	if planID == "" {
		planID = p.newID()
	}
	action.Risk = types.RiskHigh

	profile := p.Constitution.Current()
	plan := types.Plan{PlanID: planID, Action: &action}
	report := profile.ValidatePlan(plan)
	if !report.Valid {
		return types.Proposal{}, ErrPlanInvalid
	}

	appendRes, err := p.Ledger.Append(ctx, p.candidateRecord(plan, report, nil, action))
	if err != nil {
		return types.Proposal{}, err
	}
	return p.createProposal(ctx, planID, action, appendRes.DecisionID)
}

// GetDecision returns a committed ledger record.
func (p *Pipeline) GetDecision(decisionID int64) (ledger.Decision, error) {
	return p.Ledger.Get(decisionID)
}

// GetProposal returns a stored proposal.
func (p *Pipeline) GetProposal(proposalID string) (types.Proposal, error) {
	row, ok := p.Ledger.Store().GetProposal(proposalID)
	if !ok {
		return types.Proposal{}, fmt.Errorf("%w: proposal %s", ledger.ErrNotFound, proposalID)
	}
	proposal := types.Proposal{
		ProposalID: row.ProposalID,
		PlanID:     row.PlanID,
		Status:     row.Status,
		CreatedAt:  row.CreatedAt,
		DecisionID: row.DecisionID,
	}
	if err := json.Unmarshal(row.ActionJSON, &proposal.Action); err != nil {
		return types.Proposal{}, fmt.Errorf("decode proposal action: %w", err)
	}
	return proposal, nil
}

// VerifyChain recomputes and checks the hash chain over a decision range.
func (p *Pipeline) VerifyChain(fromID, toID int64) (ledger.VerificationReport, error) {
	return p.Ledger.Verify(fromID, toID)
}

func (p *Pipeline) createProposal(ctx context.Context, planID string, action types.Action, decisionID int64) (types.Proposal, error) {
	proposal := types.Proposal{
		ProposalID: p.newID(),
		PlanID:     planID,
		Action:     action,
		Status:     "pending_approval",
		CreatedAt:  p.now().UTC().Format(time.RFC3339),
		DecisionID: decisionID,
	}
	actionJSON, err := json.Marshal(action)
	if err != nil {
		return types.Proposal{}, err
	}
	if err := p.Ledger.Store().PutProposal(ledger.ProposalRow{
		ProposalID: proposal.ProposalID,
		PlanID:     proposal.PlanID,
		ActionJSON: actionJSON,
		Status:     proposal.Status,
		CreatedAt:  proposal.CreatedAt,
		DecisionID: proposal.DecisionID,
	}); err != nil {
		return types.Proposal{}, err
	}

	p.notifyEvent(ctx, notify.Event{
		Kind:       notify.KindProposalCreated,
		Scope:      planID,
		Reason:     action.Type,
		DecisionID: decisionID,
		OccurredAt: proposal.CreatedAt,
	})
	return proposal, nil
}

// resolveAction picks the action a cycle commits: an explicit plan action,
// else the plan action matching the optimizer's choice, else an action
// synthesized from the chosen option.
func (p *Pipeline) resolveAction(plan types.Plan, chosen *optimizer.ScoredOption) types.Action {
	if plan.Action != nil {
		return *plan.Action
	}
	if chosen != nil {
		for _, action := range plan.Actions {
			if action.Type == chosen.ActionType {
				return action
			}
		}
		return types.Action{Type: chosen.ActionType}
	}
	if len(plan.Actions) > 0 {
		return plan.Actions[0]
	}
	return types.Action{Type: "noop"}
}

// assessRisk forces high risk when the plan's population impact exceeds the
// council-approval tier, regardless of the action's declared tier.
func (p *Pipeline) assessRisk(profile *constitution.Profile, plan types.Plan, action types.Action) types.RiskTier {
	if action.Risk == types.RiskHigh {
		return types.RiskHigh
	}
	if plan.PopulationImpactPct != nil && *plan.PopulationImpactPct > profile.PopulationImpactTiers.ApprovalPct {
		return types.RiskHigh
	}
	return types.RiskLow
}

// candidateRecord builds the ledger append input. Components are plain
// JSON-shaped views so they canonicalize deterministically.
func (p *Pipeline) candidateRecord(plan types.Plan, report constitution.PlanReport, chosen *optimizer.ScoredOption, action types.Action) ledger.CandidateRecord {
	var inputs any
	if len(plan.InputsBundle) > 0 {
		inputs = json.RawMessage(plan.InputsBundle)
	} else {
		inputs = bundle.View(plan)
	}

	objectives := map[string]float64{}
	if chosen != nil {
		for k, v := range chosen.Values {
			objectives[k] = v
		}
	}

	options := make([]any, 0, len(plan.Options))
	for _, opt := range plan.Options {
		options = append(options, optionView(opt))
	}

	return ledger.CandidateRecord{
		PrevDecisionID: plan.PrevDecisionID,
		InputsBundle:   inputs,
		Objectives:     objectives,
		Options:        options,
		ChosenAction:   actionView(action, chosen),
		TestsPassed:    report.TestsPassed(),
	}
}

func optionView(opt types.Option) map[string]any {
	values := make(map[string]any, len(opt.Values))
	for k, v := range opt.Values {
		values[k] = v
	}
	return map[string]any{
		"action_type":          opt.ActionType,
		"raw_objective_values": values,
	}
}

func actionView(action types.Action, chosen *optimizer.ScoredOption) map[string]any {
	view := map[string]any{
		"action_type": action.Type,
	}
	if action.Domain != "" {
		view["domain"] = action.Domain
	}
	if action.Risk != "" {
		view["risk"] = string(action.Risk)
	}
	if len(action.Params) > 0 {
		params := make(map[string]any, len(action.Params))
		for k, v := range action.Params {
			params[k] = v
		}
		view["params"] = params
	}
	if chosen != nil {
		view["normalized_score"] = chosen.NormalizedScore
	}
	return view
}

// notifyEvent delivers fire-and-forget: failures are logged, never allowed
// to disturb ledger state.
func (p *Pipeline) notifyEvent(ctx context.Context, event notify.Event) {
	if err := p.Notifier.Notify(ctx, event); err != nil {
		p.Logger.Printf("notify %s failed: %v", event.Kind, err)
	}
}
