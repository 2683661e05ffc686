package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/scout/common/id"
	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/queue"
	"basegraph.app/scout/internal/store"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrEmptyTopic      = errors.New("topic must not be empty")
)

type CreateRequestParams struct {
	Topic   string
	TraceID *string
}

// RequestDetail is a request and, once it is done, its items.
type RequestDetail struct {
	Request *model.Request
	Items   []model.Item
}

type RequestService interface {
	Create(ctx context.Context, params CreateRequestParams) (*model.Request, error)
	Get(ctx context.Context, id int64) (*RequestDetail, error)
}

type requestService struct {
	requests store.RequestStore
	items    store.ItemStore
	queue    queue.Producer
}

func NewRequestService(requests store.RequestStore, items store.ItemStore, producer queue.Producer) RequestService {
	return &requestService{requests: requests, items: items, queue: producer}
}

// Create stores a pending request and enqueues its run. A request whose
// task could not be enqueued is marked failed so it is not left pending.
func (s *requestService) Create(ctx context.Context, params CreateRequestParams) (*model.Request, error) {
	topic := strings.TrimSpace(params.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	req, err := s.requests.Create(ctx, &model.Request{
		ID:     id.New(),
		Topic:  topic,
		Status: model.RequestStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	err = s.queue.Enqueue(ctx, queue.Task{
		TaskType:  queue.TaskTypeEnrichRequest,
		RequestID: req.ID,
		TraceID:   params.TraceID,
		Attempt:   1,
	})
	if err != nil {
		reason := "enqueue failed: " + err.Error()
		if _, markErr := s.requests.Transition(ctx, req.ID, model.RequestStatusFailed,
			[]model.RequestStatus{model.RequestStatusPending}, &reason); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark unqueued request failed", "error", markErr, "request_id", req.ID)
		}
		return nil, fmt.Errorf("enqueueing request %d: %w", req.ID, err)
	}

	slog.InfoContext(ctx, "request created", "request_id", req.ID)
	return req, nil
}

func (s *requestService) Get(ctx context.Context, id int64) (*RequestDetail, error) {
	req, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting request %d: %w", id, err)
	}

	detail := &RequestDetail{Request: req}
	if req.Status != model.RequestStatusDone {
		return detail, nil
	}

	items, err := s.items.ListByRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing items of request %d: %w", id, err)
	}
	detail.Items = items
	return detail, nil
}
