package assurance

import (
	"context"
	"strings"
	"time"
)

// SystemState reports whether automated planning may proceed.
type SystemState string

const (
	StateRunning SystemState = "running"
	StatePaused  SystemState = "paused"
)

// Pauser records a pause for a scope ("system" or "plan:<id>"). Resuming is
// an external human action and is not modeled here.
type Pauser interface {
	Pause(ctx context.Context, scope, reason string, pausedAt time.Time) error
}

// PauseRecorder appends the tamper-evident pause entry to the ledger.
type PauseRecorder interface {
	RecordPause(ctx context.Context, scope, severity, reason, actionTaken string) (int64, error)
}

// PauseOutcome is the structured result of an auto-pause evaluation.
type PauseOutcome struct {
	State         SystemState `json:"state"`
	Report        Report      `json:"report"`
	Reason        string      `json:"reason,omitempty"`
	LedgerEntryID int64       `json:"ledger_entry_id,omitempty"`
}

// AutoPauser couples the monitors to the pause store and the ledger. When a
// tripwire fires it pauses the scope and writes a critical ledger entry.
type AutoPauser struct {
	Monitors *Monitors
	Pauser   Pauser
	Recorder PauseRecorder
	Clock    func() time.Time
}

// AutoPauseIfNeeded runs all monitors; on any trigger it pauses the scope
// and records an auto_pause ledger entry with the concatenated reasons.
func (a *AutoPauser) AutoPauseIfNeeded(ctx context.Context, scope string, snap Snapshot) (PauseOutcome, error) {
	report := a.Monitors.RunAll(snap)
	if !report.TripwiresTriggered {
		return PauseOutcome{State: StateRunning, Report: report}, nil
	}

	reason := strings.Join(report.TriggeredReasons(), "; ")
	now := time.Now().UTC()
	if a.Clock != nil {
		now = a.Clock().UTC()
	}

	if err := a.Pauser.Pause(ctx, scope, reason, now); err != nil {
		return PauseOutcome{}, err
	}
	entryID, err := a.Recorder.RecordPause(ctx, scope, "critical", reason, "auto_pause")
	if err != nil {
		return PauseOutcome{}, err
	}

	return PauseOutcome{
		State:         StatePaused,
		Report:        report,
		Reason:        reason,
		LedgerEntryID: entryID,
	}, nil
}
