package flow

import (
	"context"
	"fmt"
	"reflect"
)

// Mode describes how a handler consumes its children's results.
type Mode int

const (
	// ModeLeaf handlers take no children.
	ModeLeaf Mode = iota
	// ModeFlat handlers take the concatenation of their children's []T
	// results in declaration order.
	ModeFlat
	// ModeKeyed handlers take a map from child index to that child's T.
	ModeKeyed
)

func (m Mode) String() string {
	switch m {
	case ModeLeaf:
		return "leaf"
	case ModeFlat:
		return "flat"
	case ModeKeyed:
		return "keyed"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Handler executes one stage type. Handlers are built with Leaf, Flat or
// Keyed, which record the payload, input and output types so that Validate
// can check a tree before it runs.
type Handler interface {
	Mode() Mode
	PayloadType() reflect.Type
	// InputType is the element each child must contribute: T for Flat
	// (children produce []T) and Keyed (children produce T), nil for Leaf.
	InputType() reflect.Type
	OutputType() reflect.Type
	Invoke(ctx context.Context, payload any, children ChildResults) (any, error)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

type childTypeError struct {
	index int
	want  reflect.Type
	got   any
}

func (e *childTypeError) Error() string {
	return fmt.Sprintf("child %d result has type %T, want %v", e.index, e.got, e.want)
}

func assertPayload[P any](payload any) (P, bool) {
	if payload == nil {
		var zero P
		return zero, nillable(typeOf[P]())
	}
	p, ok := payload.(P)
	return p, ok
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// Leaf adapts fn into a Handler for childless nodes.
func Leaf[P, R any](fn func(ctx context.Context, payload P) (R, error)) Handler {
	return &leafHandler[P, R]{fn: fn}
}

type leafHandler[P, R any] struct {
	fn func(ctx context.Context, payload P) (R, error)
}

func (h *leafHandler[P, R]) Mode() Mode                { return ModeLeaf }
func (h *leafHandler[P, R]) PayloadType() reflect.Type { return typeOf[P]() }
func (h *leafHandler[P, R]) InputType() reflect.Type   { return nil }
func (h *leafHandler[P, R]) OutputType() reflect.Type  { return typeOf[R]() }

func (h *leafHandler[P, R]) Invoke(ctx context.Context, payload any, _ ChildResults) (any, error) {
	p, ok := assertPayload[P](payload)
	if !ok {
		return nil, &PayloadTypeError{Want: typeOf[P](), Got: reflect.TypeOf(payload)}
	}
	return h.fn(ctx, p)
}

// Flat adapts fn into a Handler whose children each produce []T.
func Flat[P, T, R any](fn func(ctx context.Context, payload P, items []T) (R, error)) Handler {
	return &flatHandler[P, T, R]{fn: fn}
}

type flatHandler[P, T, R any] struct {
	fn func(ctx context.Context, payload P, items []T) (R, error)
}

func (h *flatHandler[P, T, R]) Mode() Mode                { return ModeFlat }
func (h *flatHandler[P, T, R]) PayloadType() reflect.Type { return typeOf[P]() }
func (h *flatHandler[P, T, R]) InputType() reflect.Type   { return typeOf[T]() }
func (h *flatHandler[P, T, R]) OutputType() reflect.Type  { return typeOf[R]() }

func (h *flatHandler[P, T, R]) Invoke(ctx context.Context, payload any, children ChildResults) (any, error) {
	p, ok := assertPayload[P](payload)
	if !ok {
		return nil, &PayloadTypeError{Want: typeOf[P](), Got: reflect.TypeOf(payload)}
	}
	items, err := concat[T](children)
	if err != nil {
		return nil, err
	}
	return h.fn(ctx, p, items)
}

// Keyed adapts fn into a Handler whose children each produce T, delivered
// keyed by child index.
func Keyed[P, T, R any](fn func(ctx context.Context, payload P, byChild map[int]T) (R, error)) Handler {
	return &keyedHandler[P, T, R]{fn: fn}
}

type keyedHandler[P, T, R any] struct {
	fn func(ctx context.Context, payload P, byChild map[int]T) (R, error)
}

func (h *keyedHandler[P, T, R]) Mode() Mode                { return ModeKeyed }
func (h *keyedHandler[P, T, R]) PayloadType() reflect.Type { return typeOf[P]() }
func (h *keyedHandler[P, T, R]) InputType() reflect.Type   { return typeOf[T]() }
func (h *keyedHandler[P, T, R]) OutputType() reflect.Type  { return typeOf[R]() }

func (h *keyedHandler[P, T, R]) Invoke(ctx context.Context, payload any, children ChildResults) (any, error) {
	p, ok := assertPayload[P](payload)
	if !ok {
		return nil, &PayloadTypeError{Want: typeOf[P](), Got: reflect.TypeOf(payload)}
	}
	byChild, err := keyed[T](children)
	if err != nil {
		return nil, err
	}
	return h.fn(ctx, p, byChild)
}
