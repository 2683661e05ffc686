// Package tracker owns the request lifecycle:
//
//	pending -> in_progress -> done | failed
//	pending -> done   (no candidates)
//	pending -> failed (fetch failed)
//
// Every write is guarded in SQL by the set of statuses it may leave, so a
// terminal request never changes regardless of how many workers race on it.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/store"
)

// ErrInvalidTransition is returned when the request's current status does
// not allow the requested move.
var ErrInvalidTransition = errors.New("invalid request status transition")

// sources lists, for each target status, the statuses it may be entered from.
// in_progress re-enters itself so a redelivered trigger can resume.
var sources = map[model.RequestStatus][]model.RequestStatus{
	model.RequestStatusInProgress: {model.RequestStatusPending, model.RequestStatusInProgress},
	model.RequestStatusDone:       {model.RequestStatusPending, model.RequestStatusInProgress},
	model.RequestStatusFailed:     {model.RequestStatusPending, model.RequestStatusInProgress},
}

// CanTransition reports whether a request in status from may move to to.
func CanTransition(from, to model.RequestStatus) bool {
	for _, s := range sources[to] {
		if s == from {
			return true
		}
	}
	return false
}

type Tracker struct {
	requests store.RequestStore
	tx       TxRunner
}

func New(requests store.RequestStore, tx TxRunner) *Tracker {
	return &Tracker{requests: requests, tx: tx}
}

func (t *Tracker) Get(ctx context.Context, id int64) (*model.Request, error) {
	req, err := t.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting request %d: %w", id, err)
	}
	return req, nil
}

// MarkInProgress records that a run with at least one candidate started.
func (t *Tracker) MarkInProgress(ctx context.Context, id int64) error {
	return t.transition(ctx, t.requests, id, model.RequestStatusInProgress, nil)
}

// MarkDoneEmpty finishes a request whose source produced no candidates.
func (t *Tracker) MarkDoneEmpty(ctx context.Context, id int64) error {
	return t.transition(ctx, t.requests, id, model.RequestStatusDone, nil)
}

// CompleteWithItems stores items and marks the request done in one
// transaction. Either both happen or neither does.
func (t *Tracker) CompleteWithItems(ctx context.Context, id int64, items []model.Item) error {
	err := t.tx.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Items().InsertBatch(ctx, items); err != nil {
			return fmt.Errorf("inserting %d items: %w", len(items), err)
		}
		return t.transition(ctx, sp.Requests(), id, model.RequestStatusDone, nil)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "request completed", "request_id", id, "item_count", len(items))
	return nil
}

// MarkFailed moves a non-terminal request to failed with reason.
func (t *Tracker) MarkFailed(ctx context.Context, id int64, reason string) error {
	return t.transition(ctx, t.requests, id, model.RequestStatusFailed, &reason)
}

func (t *Tracker) transition(ctx context.Context, requests store.RequestStore, id int64, to model.RequestStatus, errMsg *string) error {
	ok, err := requests.Transition(ctx, id, to, sources[to], errMsg)
	if err != nil {
		return fmt.Errorf("moving request %d to %s: %w", id, to, err)
	}
	if ok {
		slog.DebugContext(ctx, "request status changed", "request_id", id, "status", to)
		return nil
	}

	current, err := requests.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("moving request %d to %s: %w", id, to, err)
	}
	return fmt.Errorf("request %d is %s, cannot move to %s: %w", id, current.Status, to, ErrInvalidTransition)
}
