package flow

import (
	"errors"
	"fmt"
	"reflect"
)

// Validate checks a tree against the dispatcher before submission: every
// node has a registered handler, every payload matches its handler, leaf
// handlers have no children, and every child's output feeds its parent's
// declared input. It also rejects nodes reachable through more than one
// parent.
func Validate(root *Node, d *Dispatcher) error {
	if root == nil {
		return errors.New("validating tree: nil root")
	}
	seen := make(map[*Node]bool)
	return validateNode(root, d, seen)
}

func validateNode(n *Node, d *Dispatcher, seen map[*Node]bool) error {
	if seen[n] {
		return fmt.Errorf("validating tree: node %s appears more than once", n.Type)
	}
	seen[n] = true

	h, err := d.Handler(n.Type)
	if err != nil {
		return err
	}

	if err := checkPayload(n, h); err != nil {
		return err
	}

	if h.Mode() == ModeLeaf && len(n.Children) > 0 {
		return fmt.Errorf("validating tree: leaf stage %s declared with %d children", n.Type, len(n.Children))
	}

	var want reflect.Type
	switch h.Mode() {
	case ModeFlat:
		want = reflect.SliceOf(h.InputType())
	case ModeKeyed:
		want = h.InputType()
	}

	for i, c := range n.Children {
		if c == nil {
			return fmt.Errorf("validating tree: stage %s child %d is nil", n.Type, i)
		}
		ch, err := d.Handler(c.Type)
		if err != nil {
			return err
		}
		if got := ch.OutputType(); !got.AssignableTo(want) {
			return &TypeMismatchError{Parent: n.Type, Child: c.Type, Index: i, Want: want, Got: got}
		}
		if err := validateNode(c, d, seen); err != nil {
			return err
		}
	}
	return nil
}

func checkPayload(n *Node, h Handler) error {
	want := h.PayloadType()
	if n.Payload == nil {
		if nillable(want) {
			return nil
		}
		return &PayloadTypeError{Type: n.Type, Want: want, Got: nil}
	}
	if got := reflect.TypeOf(n.Payload); !got.AssignableTo(want) {
		return &PayloadTypeError{Type: n.Type, Want: want, Got: got}
	}
	return nil
}
