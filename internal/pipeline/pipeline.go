// Package pipeline drives one enrichment request end to end: fetch the
// candidates, build the job tree, wait for it and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"basegraph.app/scout/common/logger"
	"basegraph.app/scout/internal/flow"
	"basegraph.app/scout/internal/lock"
	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/stage"
	"basegraph.app/scout/internal/tracker"
)

// ErrRunFailed marks a request that ended in failed status. Retrying it
// is pointless.
var ErrRunFailed = errors.New("request run failed")

// RunLocker serializes runs of the same request across processes.
type RunLocker interface {
	Lock(ctx context.Context, name string) (release func(context.Context) error, err error)
}

type Pipeline struct {
	sched   *flow.Scheduler
	tracker Tracker
	builder *Builder
	locker  RunLocker
}

type Option func(*Pipeline)

func WithRunLocker(l RunLocker) Option {
	return func(p *Pipeline) { p.locker = l }
}

func New(sched *flow.Scheduler, tracker Tracker, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		sched:   sched,
		tracker: tracker,
		builder: NewBuilder(sched, tracker, batchSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Builder() *Builder {
	return p.builder
}

// Process runs request id to a terminal status. A request that is already
// terminal is a no-op.
func (p *Pipeline) Process(ctx context.Context, id int64) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RequestID: &id,
		Component: "scout.pipeline",
	})

	req, err := p.tracker.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		slog.InfoContext(ctx, "request already finished, skipping", "status", req.Status)
		return nil
	}

	if p.locker != nil {
		release, err := p.locker.Lock(ctx, RunKey(id))
		if errors.Is(err, lock.ErrHeld) {
			return fmt.Errorf("request %d locked by another worker: %w", id, ErrAlreadyInFlight)
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.WarnContext(ctx, "releasing run lock failed", "error", err)
			}
		}()
	}

	items, err := p.fetch(ctx, req)
	if err != nil {
		return p.fail(ctx, req, err)
	}

	res, err := p.builder.Start(ctx, req, items)
	if err != nil {
		return err
	}
	if res.ShortCircuited {
		return nil
	}

	if _, err := res.Run.Wait(ctx); err != nil {
		return p.fail(ctx, req, err)
	}
	slog.InfoContext(ctx, "request processed", "items", len(items))
	return nil
}

func (p *Pipeline) fetch(ctx context.Context, req *model.Request) ([]model.Item, error) {
	root := flow.NewNode(stage.TypeFetchSource, stage.FetchPayload{RequestID: req.ID, Topic: req.Topic})
	run, err := p.sched.Submit(ctx, fetchKey(req.ID), root)
	if errors.Is(err, flow.ErrRunExists) {
		return nil, ErrAlreadyInFlight
	}
	if err != nil {
		return nil, err
	}

	out, err := run.Wait(ctx)
	if err != nil {
		return nil, err
	}
	items, _ := out.([]model.Item)
	return items, nil
}

// fail records err on the request unless it is a cancellation or a
// duplicate run, which leave the status for the next delivery.
func (p *Pipeline) fail(ctx context.Context, req *model.Request, err error) error {
	if errors.Is(err, ErrAlreadyInFlight) || ctx.Err() != nil {
		return err
	}

	slog.ErrorContext(ctx, "request run failed", "error", err)
	if markErr := p.tracker.MarkFailed(ctx, req.ID, err.Error()); markErr != nil {
		if !errors.Is(markErr, tracker.ErrInvalidTransition) {
			return errors.Join(err, markErr)
		}
		slog.WarnContext(ctx, "request already terminal, failure not recorded", "error", markErr)
	}
	return fmt.Errorf("request %d: %w: %w", req.ID, ErrRunFailed, err)
}
