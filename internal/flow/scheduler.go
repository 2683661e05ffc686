package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"basegraph.app/scout/common/id"
	"basegraph.app/scout/common/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrency = 16

type Config struct {
	// MaxConcurrency bounds how many nodes execute at once across all runs.
	MaxConcurrency int64
}

type Option func(*Scheduler)

func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithIDGenerator overrides how ids are assigned to nodes submitted with a
// zero ID.
func WithIDGenerator(fn func() int64) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Scheduler executes submitted trees. Every ready node runs in its own
// goroutine and waits on a weighted semaphore for a slot, so the
// semaphore's FIFO waiter list is the ready queue. A node blocked on I/O
// holds only its own slot.
//
// Runs are registered by key until they finish; submitting a key that is
// still in flight returns the existing run and ErrRunExists.
type Scheduler struct {
	dispatcher *Dispatcher
	sem        *semaphore.Weighted
	observer   Observer
	newID      func() int64

	mu     sync.Mutex
	runs   map[string]*Run
	closed bool
	wg     sync.WaitGroup
}

func NewScheduler(d *Dispatcher, cfg Config, opts ...Option) *Scheduler {
	limit := cfg.MaxConcurrency
	if limit <= 0 {
		limit = defaultMaxConcurrency
	}
	s := &Scheduler{
		dispatcher: d,
		sem:        semaphore.NewWeighted(limit),
		observer:   nopObserver{},
		newID:      id.New,
		runs:       make(map[string]*Run),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Submit registers root under key and schedules its leaves. The run's
// context derives from ctx; cancelling ctx fails nodes that have not yet
// started.
func (s *Scheduler) Submit(ctx context.Context, key string, root *Node) (*Run, error) {
	if root == nil {
		return nil, errors.New("submitting run: nil root")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	if existing, ok := s.runs[key]; ok {
		s.mu.Unlock()
		return existing, ErrRunExists
	}
	run := newRun(ctx, key, root)
	s.runs[key] = run
	leaves := run.prepare(s.newID)
	s.wg.Add(len(leaves))
	s.mu.Unlock()

	slog.DebugContext(ctx, "run submitted", "run_key", key, "leaves", len(leaves))

	for _, leaf := range leaves {
		s.launch(run, leaf)
	}
	return run, nil
}

// Lookup returns the in-flight run registered under key.
func (s *Scheduler) Lookup(key string) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[key]
	return r, ok
}

// InFlight returns the number of registered runs.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Shutdown stops accepting runs and waits for dispatched nodes to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight nodes: %w", ctx.Err())
	}
}

// launch marks n ready and starts its goroutine. The caller has already
// counted n in run.inflight and s.wg.
func (s *Scheduler) launch(run *Run, n *Node) {
	n.setStatus(NodeStatusReady)
	s.emit(run, n, NodeStatusReady, nil)
	go s.execute(run, n)
}

func (s *Scheduler) execute(run *Run, n *Node) {
	defer s.wg.Done()

	if err := s.sem.Acquire(run.ctx, 1); err != nil {
		// The run was cancelled before n got a slot.
		s.settle(run, n, nil, err, run.failed())
		return
	}

	if run.failed() {
		s.sem.Release(1)
		s.settle(run, n, nil, nil, true)
		return
	}

	children := gather(n)
	n.setStatus(NodeStatusRunning)
	s.emit(run, n, NodeStatusRunning, nil)

	out, err := s.invoke(run, n, children)
	s.sem.Release(1)
	s.settle(run, n, out, err, false)
}

func (s *Scheduler) invoke(run *Run, n *Node, children ChildResults) (out any, err error) {
	ctx := logger.WithLogFields(run.ctx, logger.LogFields{
		NodeID:    logger.Ptr(n.ID),
		Stage:     logger.Ptr(string(n.Type)),
		Component: "scout.flow.scheduler",
	})
	sc := logger.StartSpan(ctx, "flow.node",
		trace.WithAttributes(
			attribute.String("flow.run_key", run.key),
			attribute.Int64("flow.node_id", n.ID),
			attribute.String("flow.stage", string(n.Type)),
			attribute.Int("flow.children", children.Len()),
		))
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in stage %s: %v", n.Type, r)
		}
		if err != nil {
			sc.RecordError(err)
			slog.WarnContext(ctx, "node failed",
				"error", err,
				"duration_ms", time.Since(start).Milliseconds())
			return
		}
		slog.DebugContext(ctx, "node completed", "duration_ms", time.Since(start).Milliseconds())
	}()

	return s.dispatcher.Dispatch(ctx, n, children)
}

// settle records n's outcome, advances or fails its ancestors and finishes
// the run when nothing is left to do. A skipped node was never executed
// because the run had already failed; it keeps its ready status.
func (s *Scheduler) settle(run *Run, n *Node, out any, err error, skipped bool) {
	var events []Event
	var next *Node

	run.mu.Lock()
	run.inflight--
	switch {
	case skipped:
	case err != nil:
		n.fail(err)
		events = append(events, s.event(run, n, NodeStatusFailed, err))
		if run.err == nil {
			nfe := &NodeFailedError{NodeID: n.ID, Type: n.Type, Err: err}
			run.err = nfe
			for p := n.parent; p != nil; p = p.parent {
				p.fail(nfe)
				events = append(events, s.event(run, p, NodeStatusFailed, nfe))
			}
			run.cancel()
		}
	default:
		n.complete(out)
		events = append(events, s.event(run, n, NodeStatusCompleted, nil))
		switch {
		case run.err != nil:
			n.takeResult()
		case n.parent == nil:
			run.result = n.takeResult()
			run.completed = true
		default:
			n.parent.pending--
			if n.parent.pending == 0 {
				next = n.parent
				run.inflight++
			}
		}
	}
	finished := run.inflight == 0 && (run.err != nil || run.completed)
	run.mu.Unlock()

	for _, ev := range events {
		s.observer.NodeStatusChanged(run.notifyCtx, ev)
	}

	if next != nil {
		s.wg.Add(1)
		s.launch(run, next)
	}

	if finished {
		s.finish(run)
	}
}

func (s *Scheduler) finish(run *Run) {
	s.mu.Lock()
	if s.runs[run.key] == run {
		delete(s.runs, run.key)
	}
	s.mu.Unlock()

	if err := run.Err(); err != nil {
		slog.InfoContext(run.notifyCtx, "run failed", "run_key", run.key, "error", err)
	} else {
		slog.DebugContext(run.notifyCtx, "run completed", "run_key", run.key)
	}
	run.finish()
}

func (s *Scheduler) emit(run *Run, n *Node, status NodeStatus, err error) {
	s.observer.NodeStatusChanged(run.notifyCtx, s.event(run, n, status, err))
}

func (s *Scheduler) event(run *Run, n *Node, status NodeStatus, err error) Event {
	return Event{RunKey: run.key, NodeID: n.ID, Type: n.Type, Status: status, Err: err}
}
