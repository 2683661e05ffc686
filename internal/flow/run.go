package flow

import (
	"context"
	"sync"
)

// Run is one submitted tree. It finishes when the root completes, or when
// a node has failed and every node already dispatched has returned.
type Run struct {
	key    string
	root   *Node
	ctx    context.Context
	cancel context.CancelFunc

	// notifyCtx carries ctx's values without its cancellation, for
	// observers and logs emitted after the run has been cancelled.
	notifyCtx context.Context

	done chan struct{}
	once sync.Once

	mu        sync.Mutex
	inflight  int
	err       error
	result    any
	completed bool
}

func newRun(ctx context.Context, key string, root *Node) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	return &Run{
		key:       key,
		root:      root,
		ctx:       runCtx,
		cancel:    cancel,
		notifyCtx: context.WithoutCancel(ctx),
		done:      make(chan struct{}),
	}
}

func (r *Run) Key() string { return r.key }

func (r *Run) Root() *Node { return r.root }

// Done is closed once the run has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes or ctx is done. It returns the root's
// result, or a *NodeFailedError naming the node that failed first.
func (r *Run) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err returns the run's failure, or nil while it is running or after it
// completed.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Run) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err != nil
}

// prepare wires parent links, counts pending children and assigns missing
// ids. It returns the leaves in declaration order.
func (r *Run) prepare(newID func() int64) []*Node {
	var leaves []*Node
	var visit func(n, parent *Node, index int)
	visit = func(n, parent *Node, index int) {
		if n.ID == 0 {
			n.ID = newID()
		}
		n.parent = parent
		n.index = index
		n.pending = len(n.Children)
		n.setStatus(NodeStatusWaiting)
		if len(n.Children) == 0 {
			leaves = append(leaves, n)
		}
		for i, c := range n.Children {
			visit(c, n, i)
		}
	}
	visit(r.root, nil, 0)
	r.inflight = len(leaves)
	return leaves
}

func (r *Run) finish() {
	r.once.Do(func() {
		r.cancel()
		close(r.done)
	})
}
