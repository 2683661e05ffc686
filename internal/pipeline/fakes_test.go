package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/notify"
	"basegraph.app/scout/internal/stage"
)

// fakeSource serves fixed pages; pages missing from the map are empty.
type fakeSource struct {
	pages map[int][]model.Candidate
	fail  map[int]error
	calls atomic.Int32
}

func (f *fakeSource) Fetch(_ context.Context, _ string, page int) ([]model.Candidate, error) {
	f.calls.Add(1)
	if err := f.fail[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func hits(page, n int) []model.Candidate {
	out := make([]model.Candidate, n)
	for i := range out {
		out[i] = model.Candidate{Title: fmt.Sprintf("p%d-%02d", page, i), URL: fmt.Sprintf("https://shop.test/%d/%d", page, i)}
	}
	return out
}

type fakeBrowser struct {
	opened atomic.Int32
	closed atomic.Int32
	// gate, when set, blocks every extraction until closed.
	gate chan struct{}
}

func (b *fakeBrowser) Open(context.Context) (stage.BrowserSession, error) {
	b.opened.Add(1)
	return &fakeSession{b: b}, nil
}

type fakeSession struct{ b *fakeBrowser }

func (s *fakeSession) Extract(ctx context.Context, url string) (string, bool, error) {
	if s.b.gate != nil {
		select {
		case <-s.b.gate:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
	return "desc " + url, true, nil
}

func (s *fakeSession) Close() error {
	s.b.closed.Add(1)
	return nil
}

// fakeScorer scores every item except those listed in omit.
type fakeScorer struct {
	mu    sync.Mutex
	seen  []model.Item
	omit  map[int]bool
	calls int
}

func (f *fakeScorer) Score(_ context.Context, _ string, items []model.Item) ([]model.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = append([]model.Item(nil), items...)

	var out []model.Score
	for i, it := range items {
		if f.omit[i] {
			continue
		}
		out = append(out, model.Score{
			ItemID:         it.ID,
			Authors:        []string{"A. Author"},
			RelevanceScore: 0.4567,
			ValueScore:     7.891,
			Summary:        "fine",
		})
	}
	return out, nil
}

type fakeSink struct {
	mu         sync.Mutex
	deliveries []notify.Delivery
}

func (f *fakeSink) Deliver(_ context.Context, d notify.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, d)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deliveries)
}

type fakeLocker struct {
	err      error
	locked   []string
	released atomic.Int32
}

func (f *fakeLocker) Lock(_ context.Context, name string) (func(context.Context) error, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.locked = append(f.locked, name)
	return func(context.Context) error {
		f.released.Add(1)
		return nil
	}, nil
}

func counter() func() int64 {
	var n atomic.Int64
	return func() int64 { return n.Add(1) }
}
