package stage_test

import (
	"context"
	"sync"
	"sync/atomic"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/notify"
	"basegraph.app/scout/internal/stage"
)

type mockSource struct {
	fetchFn func(ctx context.Context, topic string, page int) ([]model.Candidate, error)
}

func (m *mockSource) Fetch(ctx context.Context, topic string, page int) ([]model.Candidate, error) {
	return m.fetchFn(ctx, topic, page)
}

type mockSession struct {
	extractFn func(ctx context.Context, url string) (string, bool, error)
	closed    atomic.Int32
}

func (m *mockSession) Extract(ctx context.Context, url string) (string, bool, error) {
	return m.extractFn(ctx, url)
}

func (m *mockSession) Close() error {
	m.closed.Add(1)
	return nil
}

type mockScorer struct {
	scoreFn func(ctx context.Context, topic string, items []model.Item) ([]model.Score, error)
}

func (m *mockScorer) Score(ctx context.Context, topic string, items []model.Item) ([]model.Score, error) {
	return m.scoreFn(ctx, topic, items)
}

type mockCompleter struct {
	completeFn func(ctx context.Context, requestID int64, items []model.Item) error
}

func (m *mockCompleter) CompleteWithItems(ctx context.Context, requestID int64, items []model.Item) error {
	return m.completeFn(ctx, requestID, items)
}

type recordingSink struct {
	mu         sync.Mutex
	deliveries []notify.Delivery
	err        error
}

func (s *recordingSink) Deliver(_ context.Context, d notify.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, d)
	return s.err
}

func sequentialIDs(start int64) func() int64 {
	var n atomic.Int64
	n.Store(start - 1)
	return func() int64 { return n.Add(1) }
}

func openerFor(sess *mockSession) stage.SessionOpener {
	return stage.OpenerFunc(func(context.Context) (stage.BrowserSession, error) {
		return sess, nil
	})
}
