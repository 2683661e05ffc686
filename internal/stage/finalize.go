package stage

import (
	"context"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/notify"
)

func (e *executors) finalize(ctx context.Context, p FinalizePayload, items []model.Item) ([]model.Item, error) {
	if err := e.deps.Tracker.CompleteWithItems(ctx, p.RequestID, items); err != nil {
		return nil, collaboratorErr(TypeFinalizeRequest, "store", err)
	}
	return items, nil
}

// Delivered is the result of a notify node.
type Delivered struct {
	Records int
}

func (e *executors) notify(ctx context.Context, p NotifyPayload, items []model.Item) (Delivered, error) {
	records := notify.FromItems(items)
	err := e.deps.Sink.Deliver(ctx, notify.Delivery{
		RequestID: p.RequestID,
		Topic:     p.Topic,
		Records:   records,
	})
	if err != nil {
		return Delivered{}, collaboratorErr(TypeNotify, "deliver", err)
	}
	return Delivered{Records: len(records)}, nil
}
