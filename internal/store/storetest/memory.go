// Package storetest provides an in-memory request and item store with the
// same guarded-transition semantics as the Postgres stores.
package storetest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/store"
	"basegraph.app/scout/internal/tracker"
)

// Memory holds requests and items and implements tracker.TxRunner. Its WithTx snapshots state and restores
// it when fn returns an error, which is enough to observe atomicity in tests.
type Memory struct {
	mu       sync.Mutex
	requests map[int64]model.Request
	items    map[int64][]model.Item

	// InsertErr, when set, makes every InsertBatch fail.
	InsertErr error
}

func NewMemory() *Memory {
	return &Memory{
		requests: make(map[int64]model.Request),
		items:    make(map[int64][]model.Item),
	}
}

// Seed stores req as-is.
func (m *Memory) Seed(req model.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.Status == "" {
		req.Status = model.RequestStatusPending
	}
	m.requests[req.ID] = req
}

func (m *Memory) Status(id int64) model.RequestStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id].Status
}

func (m *Memory) Requests() store.RequestStore { return requestStore{m} }

func (m *Memory) Items() store.ItemStore { return itemStore{m} }

// WithTx runs fn against the same Memory and rolls back on error.
func (m *Memory) WithTx(_ context.Context, fn func(stores tracker.StoreProvider) error) error {
	m.mu.Lock()
	reqSnap := make(map[int64]model.Request, len(m.requests))
	for k, v := range m.requests {
		reqSnap[k] = v
	}
	itemSnap := make(map[int64][]model.Item, len(m.items))
	for k, v := range m.items {
		itemSnap[k] = slices.Clone(v)
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.requests = reqSnap
		m.items = itemSnap
		m.mu.Unlock()
		return err
	}
	return nil
}

type requestStore struct{ m *Memory }

func (s requestStore) Create(_ context.Context, req *model.Request) (*model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.requests[req.ID]; ok {
		return nil, fmt.Errorf("request %d already exists", req.ID)
	}
	out := *req
	if out.Status == "" {
		out.Status = model.RequestStatusPending
	}
	now := time.Now()
	out.CreatedAt, out.UpdatedAt = now, now
	s.m.requests[out.ID] = out
	return &out, nil
}

func (s requestStore) GetByID(_ context.Context, id int64) (*model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	req, ok := s.m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &req, nil
}

func (s requestStore) Transition(_ context.Context, id int64, to model.RequestStatus, from []model.RequestStatus, errMsg *string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	req, ok := s.m.requests[id]
	if !ok || !slices.Contains(from, req.Status) {
		return false, nil
	}
	req.Status = to
	req.Error = errMsg
	req.UpdatedAt = time.Now()
	s.m.requests[id] = req
	return true, nil
}

type itemStore struct{ m *Memory }

func (s itemStore) InsertBatch(_ context.Context, items []model.Item) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.InsertErr != nil {
		return 0, s.m.InsertErr
	}
	for _, it := range items {
		s.m.items[it.RequestID] = append(s.m.items[it.RequestID], it)
	}
	return int64(len(items)), nil
}

func (s itemStore) ListByRequest(_ context.Context, requestID int64) ([]model.Item, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := slices.Clone(s.m.items[requestID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s itemStore) CountByRequest(_ context.Context, requestID int64) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return int64(len(s.m.items[requestID])), nil
}
