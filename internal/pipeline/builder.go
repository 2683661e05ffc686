package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"basegraph.app/scout/internal/batch"
	"basegraph.app/scout/internal/flow"
	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/stage"
)

var (
	ErrAlreadyInFlight = errors.New("request run already in flight")
	ErrRequestTerminal = errors.New("request already finished")
)

// DefaultBatchSize is how many items one enrich-item-batch node carries.
const DefaultBatchSize = 6

// Tracker is the subset of the request tracker the pipeline drives.
type Tracker interface {
	Get(ctx context.Context, id int64) (*model.Request, error)
	MarkInProgress(ctx context.Context, id int64) error
	MarkDoneEmpty(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// RunKey is the scheduler key of a request's job tree.
func RunKey(requestID int64) string {
	return fmt.Sprintf("request:%d", requestID)
}

func fetchKey(requestID int64) string {
	return fmt.Sprintf("fetch:%d", requestID)
}

// Builder turns fetched items into a job tree and submits it.
type Builder struct {
	sched     *flow.Scheduler
	tracker   Tracker
	batchSize int
}

func NewBuilder(sched *flow.Scheduler, tracker Tracker, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Builder{sched: sched, tracker: tracker, batchSize: batchSize}
}

// Build returns the tree
//
//	notify
//	└── finalize-request-status
//	    └── aggregate-and-score
//	        └── enrich-item-batch × ⌈N/B⌉
//
// validated against the scheduler's dispatcher. items must not be empty.
func (b *Builder) Build(req *model.Request, items []model.Item) (*flow.Node, error) {
	if len(items) == 0 {
		return nil, errors.New("building job tree: no items")
	}

	groups := batch.Partition(items, b.batchSize)
	leaves := make([]*flow.Node, len(groups))
	for i, g := range groups {
		leaves[i] = flow.NewNode(stage.TypeEnrichItemBatch, stage.EnrichPayload{
			RequestID: req.ID,
			Index:     i,
			Items:     g,
		})
	}

	score := flow.NewNode(stage.TypeAggregateScore, stage.ScorePayload{RequestID: req.ID, Topic: req.Topic}, leaves...)
	finalize := flow.NewNode(stage.TypeFinalizeRequest, stage.FinalizePayload{RequestID: req.ID}, score)
	root := flow.NewNode(stage.TypeNotify, stage.NotifyPayload{RequestID: req.ID, Topic: req.Topic}, finalize)

	if err := flow.Validate(root, b.sched.Dispatcher()); err != nil {
		return nil, fmt.Errorf("validating job tree: %w", err)
	}
	return root, nil
}

type StartResult struct {
	Run *flow.Run
	// ShortCircuited is set when there was nothing to enrich and the
	// request went straight to done.
	ShortCircuited bool
}

// Start builds and submits the tree for req. It submits nothing when a run
// for req is already registered, returning that run with
// ErrAlreadyInFlight.
func (b *Builder) Start(ctx context.Context, req *model.Request, items []model.Item) (StartResult, error) {
	if req.Status.Terminal() {
		return StartResult{}, fmt.Errorf("request %d is %s: %w", req.ID, req.Status, ErrRequestTerminal)
	}

	key := RunKey(req.ID)
	if run, ok := b.sched.Lookup(key); ok {
		return StartResult{Run: run}, ErrAlreadyInFlight
	}

	if len(items) == 0 {
		if err := b.tracker.MarkDoneEmpty(ctx, req.ID); err != nil {
			return StartResult{}, err
		}
		slog.InfoContext(ctx, "no candidates, request done", "request_id", req.ID)
		return StartResult{ShortCircuited: true}, nil
	}

	root, err := b.Build(req, items)
	if err != nil {
		return StartResult{}, err
	}

	if err := b.tracker.MarkInProgress(ctx, req.ID); err != nil {
		return StartResult{}, err
	}

	run, err := b.sched.Submit(ctx, key, root)
	if errors.Is(err, flow.ErrRunExists) {
		return StartResult{Run: run}, ErrAlreadyInFlight
	}
	if err != nil {
		return StartResult{}, fmt.Errorf("submitting %s: %w", key, err)
	}

	slog.InfoContext(ctx, "job tree submitted",
		"request_id", req.ID,
		"items", len(items),
		"batches", len(root.Children[0].Children[0].Children))
	return StartResult{Run: run}, nil
}
