package store

import (
	"context"
	"errors"

	"basegraph.app/scout/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// RequestStore defines the contract for request data access
type RequestStore interface {
	Create(ctx context.Context, req *model.Request) (*model.Request, error)
	GetByID(ctx context.Context, id int64) (*model.Request, error)
	// Transition moves the request to `to` only if its current status is one
	// of `from`. It reports whether a row was updated.
	Transition(ctx context.Context, id int64, to model.RequestStatus, from []model.RequestStatus, errMsg *string) (bool, error)
}

// ItemStore defines the contract for item data access. Items are insert-only.
type ItemStore interface {
	InsertBatch(ctx context.Context, items []model.Item) (int64, error)
	ListByRequest(ctx context.Context, requestID int64) ([]model.Item, error)
	CountByRequest(ctx context.Context, requestID int64) (int64, error)
}
