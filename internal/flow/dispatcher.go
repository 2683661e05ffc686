package flow

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Dispatcher routes a node to the handler registered for its StageType.
// The table is exhaustive over the closed set it was built with.
type Dispatcher struct {
	types    []StageType
	handlers map[StageType]Handler
}

// NewDispatcher refuses a table that misses a member of closedSet or
// registers a tag outside it.
func NewDispatcher(closedSet []StageType, handlers map[StageType]Handler) (*Dispatcher, error) {
	var errs []error
	seen := make(map[StageType]bool, len(closedSet))
	for _, t := range closedSet {
		if seen[t] {
			errs = append(errs, fmt.Errorf("stage type %q listed twice", t))
			continue
		}
		seen[t] = true
		h, ok := handlers[t]
		if !ok || h == nil {
			errs = append(errs, fmt.Errorf("no handler registered for stage type %q", t))
		}
	}
	for t := range handlers {
		if !seen[t] {
			errs = append(errs, fmt.Errorf("handler registered for stage type %q outside the closed set", t))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("building dispatcher: %w", errors.Join(errs...))
	}

	table := make(map[StageType]Handler, len(handlers))
	for t, h := range handlers {
		table[t] = h
	}
	return &Dispatcher{types: slices.Clone(closedSet), handlers: table}, nil
}

// Types returns the closed set in registration order.
func (d *Dispatcher) Types() []StageType {
	return slices.Clone(d.types)
}

func (d *Dispatcher) Handler(t StageType) (Handler, error) {
	h, ok := d.handlers[t]
	if !ok {
		return nil, &UnknownStageTypeError{Type: t}
	}
	return h, nil
}

// Dispatch runs the node's handler with its aggregated children results.
func (d *Dispatcher) Dispatch(ctx context.Context, n *Node, children ChildResults) (any, error) {
	h, err := d.Handler(n.Type)
	if err != nil {
		return nil, err
	}
	out, err := h.Invoke(ctx, n.Payload, children)
	if err != nil {
		var pte *PayloadTypeError
		if errors.As(err, &pte) && pte.Type == "" {
			pte.Type = n.Type
		}
		return nil, err
	}
	return out, nil
}
