package assurance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePauser struct {
	scope  string
	reason string
	at     time.Time
	err    error
	calls  int
}

func (f *fakePauser) Pause(_ context.Context, scope, reason string, pausedAt time.Time) error {
	f.calls++
	f.scope = scope
	f.reason = reason
	f.at = pausedAt
	return f.err
}

type fakeRecorder struct {
	severity string
	reason   string
	action   string
	entryID  int64
	err      error
	calls    int
}

func (f *fakeRecorder) RecordPause(_ context.Context, scope, severity, reason, actionTaken string) (int64, error) {
	f.calls++
	f.severity = severity
	f.reason = reason
	f.action = actionTaken
	return f.entryID, f.err
}

func regressionSnapshot() Snapshot {
	return Snapshot{
		Historical: []map[string]float64{
			{"atkinson_index": 0.25},
			{"atkinson_index": 0.24},
		},
		Current: map[string]float64{"atkinson_index": 0.30},
	}
}

func TestAutoPauseOnTripwire(t *testing.T) {
	pauser := &fakePauser{}
	recorder := &fakeRecorder{entryID: 7}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := &AutoPauser{
		Monitors: defaultMonitors(),
		Pauser:   pauser,
		Recorder: recorder,
		Clock:    func() time.Time { return now },
	}

	outcome, err := a.AutoPauseIfNeeded(context.Background(), "system", regressionSnapshot())
	require.NoError(t, err)

	assert.Equal(t, StatePaused, outcome.State)
	assert.Equal(t, int64(7), outcome.LedgerEntryID)
	assert.Contains(t, outcome.Reason, "fairness regression")

	assert.Equal(t, "system", pauser.scope)
	assert.Equal(t, now, pauser.at)
	assert.Equal(t, "critical", recorder.severity)
	assert.Equal(t, "auto_pause", recorder.action)
	assert.Equal(t, outcome.Reason, recorder.reason)
}

func TestAutoPauseRemainsRunning(t *testing.T) {
	pauser := &fakePauser{}
	recorder := &fakeRecorder{}

	a := &AutoPauser{Monitors: defaultMonitors(), Pauser: pauser, Recorder: recorder}

	outcome, err := a.AutoPauseIfNeeded(context.Background(), "system", Snapshot{
		Current: map[string]float64{"reserve_margin": 20},
	})
	require.NoError(t, err)

	assert.Equal(t, StateRunning, outcome.State)
	assert.Zero(t, pauser.calls)
	assert.Zero(t, recorder.calls)
}

func TestAutoPausePropagatesStorageErrors(t *testing.T) {
	wantErr := errors.New("store unavailable")
	a := &AutoPauser{
		Monitors: defaultMonitors(),
		Pauser:   &fakePauser{err: wantErr},
		Recorder: &fakeRecorder{},
	}

	_, err := a.AutoPauseIfNeeded(context.Background(), "plan:p1", regressionSnapshot())
	assert.ErrorIs(t, err, wantErr)
}
