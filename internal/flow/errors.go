package flow

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrRunExists is returned by Submit when a run is already registered under
// the same key. The existing run is returned alongside it.
var ErrRunExists = errors.New("run already in flight")

// ErrSchedulerClosed is returned by Submit after Shutdown.
var ErrSchedulerClosed = errors.New("scheduler closed")

// UnknownStageTypeError means a node carries a tag the dispatcher has no
// handler for. It is a programming error and is never retried.
type UnknownStageTypeError struct {
	Type StageType
}

func (e *UnknownStageTypeError) Error() string {
	return fmt.Sprintf("unknown stage type %q", e.Type)
}

// NodeFailedError carries the failing node's identity up to Run.Wait.
type NodeFailedError struct {
	NodeID int64
	Type   StageType
	Err    error
}

func (e *NodeFailedError) Error() string {
	return fmt.Sprintf("node %d (%s) failed: %v", e.NodeID, e.Type, e.Err)
}

func (e *NodeFailedError) Unwrap() error {
	return e.Err
}

// PayloadTypeError is returned when a node's payload does not match the
// type its handler was declared with.
type PayloadTypeError struct {
	Type StageType
	Want reflect.Type
	Got  reflect.Type
}

func (e *PayloadTypeError) Error() string {
	return fmt.Sprintf("stage %s: payload type %v does not match handler type %v", e.Type, e.Got, e.Want)
}

// TypeMismatchError is returned by Validate when a child's output cannot
// feed its parent's declared input.
type TypeMismatchError struct {
	Parent StageType
	Child  StageType
	Index  int
	Want   reflect.Type
	Got    reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("stage %s child %d (%s): produces %v, parent consumes %v",
		e.Parent, e.Index, e.Child, e.Got, e.Want)
}
