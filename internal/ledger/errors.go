package ledger

import "errors"

var (
	// ErrPredecessorNotFound means an append referenced a prev_decision_id
	// that does not exist. Nothing is written.
	ErrPredecessorNotFound = errors.New("predecessor decision not found")

	// ErrHashMismatch reports a broken hash chain found by verification.
	ErrHashMismatch = errors.New("ledger hash mismatch")

	// ErrNotFound means the requested decision does not exist.
	ErrNotFound = errors.New("decision not found")
)
