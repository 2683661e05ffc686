package tracker_test

import (
	"context"

	"basegraph.app/scout/internal/model"
)

type mockRequestStore struct {
	createFn     func(ctx context.Context, req *model.Request) (*model.Request, error)
	getByIDFn    func(ctx context.Context, id int64) (*model.Request, error)
	transitionFn func(ctx context.Context, id int64, to model.RequestStatus, from []model.RequestStatus, errMsg *string) (bool, error)
}

func (m *mockRequestStore) Create(ctx context.Context, req *model.Request) (*model.Request, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return req, nil
}

func (m *mockRequestStore) GetByID(ctx context.Context, id int64) (*model.Request, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRequestStore) Transition(ctx context.Context, id int64, to model.RequestStatus, from []model.RequestStatus, errMsg *string) (bool, error) {
	if m.transitionFn != nil {
		return m.transitionFn(ctx, id, to, from, errMsg)
	}
	return true, nil
}
