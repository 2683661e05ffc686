package stage

import (
	"context"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/notify"
)

// SourceFetcher returns one page of search results. Called once per page,
// in parallel.
type SourceFetcher interface {
	Fetch(ctx context.Context, topic string, page int) ([]model.Candidate, error)
}

// BrowserSession is an isolated browsing context owned by one batch.
type BrowserSession interface {
	// Extract returns the page's description; ok is false when it has none.
	Extract(ctx context.Context, url string) (desc string, ok bool, err error)
	Close() error
}

type SessionOpener interface {
	Open(ctx context.Context) (BrowserSession, error)
}

// OpenerFunc adapts a function to SessionOpener.
type OpenerFunc func(ctx context.Context) (BrowserSession, error)

func (f OpenerFunc) Open(ctx context.Context) (BrowserSession, error) {
	return f(ctx)
}

type BatchScorer interface {
	Score(ctx context.Context, topic string, items []model.Item) ([]model.Score, error)
}

// Completer persists items and marks their request done atomically.
type Completer interface {
	CompleteWithItems(ctx context.Context, requestID int64, items []model.Item) error
}

type Sink interface {
	Deliver(ctx context.Context, d notify.Delivery) error
}
