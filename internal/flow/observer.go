package flow

import "context"

// Event reports one node status change inside a run.
type Event struct {
	RunKey string
	NodeID int64
	Type   StageType
	Status NodeStatus
	Err    error
}

// Observer is notified of every node status change. Calls are made from
// scheduler goroutines without any scheduler lock held, and must not block
// for long.
type Observer interface {
	NodeStatusChanged(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) NodeStatusChanged(ctx context.Context, ev Event) {
	f(ctx, ev)
}

type nopObserver struct{}

func (nopObserver) NodeStatusChanged(context.Context, Event) {}
