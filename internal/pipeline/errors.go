package pipeline

import (
	"errors"
	"fmt"
)

// ErrPlanInvalid marks a plan or action rejected by constitutional
// validation when invoked outside a full planning cycle.
var ErrPlanInvalid = errors.New("plan failed constitutional validation")

// CollaboratorError reports an unavailable external collaborator (metrics
// provider, executor, notification sink). It is a distinct channel from
// validation failures and ledger faults: a committed ledger entry is never
// rolled back because a collaborator call after it failed.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s unavailable: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
