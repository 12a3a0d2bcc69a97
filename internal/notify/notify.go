package notify

import (
	"context"
	"log"
)

// Event is a governance notification: a tripwire pause, a proposal waiting
// for approval, or a filed appeal.
type Event struct {
	Kind       string `json:"kind"`
	Scope      string `json:"scope,omitempty"`
	Reason     string `json:"reason,omitempty"`
	DecisionID int64  `json:"decision_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

const (
	KindAutoPause       = "auto_pause"
	KindProposalCreated = "proposal_created"
	KindAppealFiled     = "appeal_filed"
)

// Sink delivers events to an operator channel. Delivery is best-effort;
// callers log failures and move on.
type Sink interface {
	Notify(ctx context.Context, event Event) error
}

// LogSink writes events to the process log. It is the default sink when no
// webhook is configured.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Notify(_ context.Context, event Event) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("notify kind=%s scope=%s decision_id=%d reason=%q", event.Kind, event.Scope, event.DecisionID, event.Reason)
	return nil
}

// Multi fans an event out to every sink, returning the first failure.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Notify(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
