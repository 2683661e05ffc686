package stage

import (
	"fmt"

	"basegraph.app/scout/internal/flow"
)

// CollaboratorError reports a failed call to an external collaborator.
// It is terminal for the request.
type CollaboratorError struct {
	Stage flow.StageType
	Op    string
	Err   error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// UnmatchedResultError means the scorer returned no entry for an item.
type UnmatchedResultError struct {
	ItemID int64
}

func (e *UnmatchedResultError) Error() string {
	return fmt.Sprintf("no score returned for item %d", e.ItemID)
}

func collaboratorErr(stage flow.StageType, op string, err error) error {
	return &CollaboratorError{Stage: stage, Op: op, Err: err}
}
