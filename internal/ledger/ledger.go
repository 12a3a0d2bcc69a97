package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Ledger is the append-only, hash-chained decision log. It is the only
// stateful component in the kernel; appends to a chain are serialized
// end-to-end (predecessor read, hash, uniqueness check, insert).
type Ledger struct {
	store Store
	now   func() time.Time

	mu sync.Mutex
}

// New creates a ledger over the given record store.
func New(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// WithClock overrides the timestamp source. Tests use this for stable rows.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Store exposes the underlying record store for non-chain rows (appeals,
// pauses, proposals).
func (l *Ledger) Store() Store { return l.store }

// AppendResult reports where an append landed. Idempotent is true when an
// identical record already existed and no new row was inserted.
type AppendResult struct {
	DecisionID int64  `json:"decision_id"`
	CurrHash   []byte `json:"curr_hash"`
	Idempotent bool   `json:"idempotent"`
}

// Append writes a candidate record to the chain. The whole unit —
// predecessor lookup, hash computation, idempotency check, insert — runs
// under the ledger mutex inside one store transaction, so concurrent
// appends cannot interleave. A missing predecessor fails with
// ErrPredecessorNotFound and writes nothing.
func (l *Ledger) Append(ctx context.Context, rec CandidateRecord) (AppendResult, error) {
	parts, err := canonicalize(rec)
	if err != nil {
		return AppendResult{}, err
	}

	approvals, err := optionalComponent("approvals", rec.Approvals)
	if err != nil {
		return AppendResult{}, err
	}
	appeals, err := optionalComponent("appeals", rec.Appeals)
	if err != nil {
		return AppendResult{}, err
	}
	postHoc, err := optionalComponent("post_hoc_metrics", rec.PostHocMetrics)
	if err != nil {
		return AppendResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return AppendResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var result AppendResult
	err = l.store.WithTx(func(tx Tx) error {
		var prevHash []byte
		if rec.PrevDecisionID != nil {
			prev, ok := tx.GetDecision(*rec.PrevDecisionID)
			if !ok {
				return fmt.Errorf("%w: decision %d", ErrPredecessorNotFound, *rec.PrevDecisionID)
			}
			prevHash = prev.CurrHash
		}

		currHash := computeHash(prevHash, parts)

		if existing, ok := tx.GetDecisionByHash(currHash); ok {
			result = AppendResult{
				DecisionID: existing.DecisionID,
				CurrHash:   existing.CurrHash,
				Idempotent: true,
			}
			return nil
		}

		row := DecisionRow{
			TS:             l.now().UTC().Format(time.RFC3339),
			PrevDecisionID: rec.PrevDecisionID,
			InputsBundle:   parts.inputsBundle,
			Objectives:     parts.objectives,
			Options:        parts.options,
			ChosenAction:   parts.chosenAction,
			TestsPassed:    parts.testsPassed,
			Approvals:      approvals,
			Appeals:        appeals,
			PostHocMetrics: postHoc,
			PrevHash:       prevHash,
			CurrHash:       currHash,
		}

		id, err := tx.InsertDecision(row)
		if err != nil {
			return fmt.Errorf("insert decision: %w", err)
		}
		result = AppendResult{DecisionID: id, CurrHash: currHash}
		return nil
	})
	if err != nil {
		return AppendResult{}, err
	}
	return result, nil
}

// Get returns a committed decision by id.
func (l *Ledger) Get(decisionID int64) (Decision, error) {
	row, ok := l.store.GetDecision(decisionID)
	if !ok {
		return Decision{}, fmt.Errorf("%w: %d", ErrNotFound, decisionID)
	}
	return decodeRow(row)
}

// RecordPause appends the tamper-evident auto-pause entry. The pause
// timestamp is part of the hashed inputs so distinct pause events chain as
// distinct records.
func (l *Ledger) RecordPause(ctx context.Context, scope, severity, reason, actionTaken string) (int64, error) {
	rec := CandidateRecord{
		InputsBundle: map[string]any{
			"scope":     scope,
			"severity":  severity,
			"reason":    reason,
			"paused_at": l.now().UTC().Format(time.RFC3339),
		},
		Objectives: map[string]float64{},
		Options:    []any{},
		ChosenAction: map[string]any{
			"action_type": actionTaken,
			"scope":       scope,
		},
		TestsPassed: map[string]bool{},
	}

	result, err := l.Append(ctx, rec)
	if err != nil {
		return 0, err
	}
	return result.DecisionID, nil
}

// RecordAppeal appends an appeal entry linked to the challenged decision.
// The original record is never mutated; the new entry chains off it.
func (l *Ledger) RecordAppeal(ctx context.Context, decisionID int64, appealID, submitter, grounds, filedAt string) (int64, error) {
	rec := CandidateRecord{
		PrevDecisionID: &decisionID,
		InputsBundle: map[string]any{
			"appeal_id":          appealID,
			"linked_decision_id": decisionID,
			"submitter":          submitter,
			"grounds":            grounds,
			"filed_at":           filedAt,
		},
		Objectives: map[string]float64{},
		Options:    []any{},
		ChosenAction: map[string]any{
			"action_type": "appeal_filed",
			"appeal_id":   appealID,
		},
		TestsPassed: map[string]bool{},
	}

	result, err := l.Append(ctx, rec)
	if err != nil {
		return 0, err
	}
	return result.DecisionID, nil
}

func optionalComponent(name string, v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return canonicalComponent(name, v)
}
