package store

import (
	"context"
	"errors"

	"basegraph.app/scout/core/db/sqlc"
	"basegraph.app/scout/internal/model"
	"github.com/jackc/pgx/v5"
)

type requestStore struct {
	queries *sqlc.Queries
}

func newRequestStore(queries *sqlc.Queries) RequestStore {
	return &requestStore{queries: queries}
}

func (s *requestStore) Create(ctx context.Context, req *model.Request) (*model.Request, error) {
	status := req.Status
	if status == "" {
		status = model.RequestStatusPending
	}
	row, err := s.queries.CreateRequest(ctx, sqlc.CreateRequestParams{
		ID:     req.ID,
		Topic:  req.Topic,
		Status: string(status),
	})
	if err != nil {
		return nil, err
	}
	return toRequestModel(row), nil
}

func (s *requestStore) GetByID(ctx context.Context, id int64) (*model.Request, error) {
	row, err := s.queries.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toRequestModel(row), nil
}

func (s *requestStore) Transition(ctx context.Context, id int64, to model.RequestStatus, from []model.RequestStatus, errMsg *string) (bool, error) {
	fromStatuses := make([]string, len(from))
	for i, f := range from {
		fromStatuses[i] = string(f)
	}
	n, err := s.queries.TransitionRequestStatus(ctx, sqlc.TransitionRequestStatusParams{
		ToStatus:     string(to),
		Error:        errMsg,
		ID:           id,
		FromStatuses: fromStatuses,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func toRequestModel(row sqlc.Request) *model.Request {
	return &model.Request{
		ID:        row.ID,
		Topic:     row.Topic,
		Status:    model.RequestStatus(row.Status),
		Error:     row.Error,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
