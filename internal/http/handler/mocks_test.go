package handler_test

import (
	"context"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/service"
)

type mockRequestService struct {
	createFn func(ctx context.Context, params service.CreateRequestParams) (*model.Request, error)
	getFn    func(ctx context.Context, id int64) (*service.RequestDetail, error)
}

func (m *mockRequestService) Create(ctx context.Context, params service.CreateRequestParams) (*model.Request, error) {
	return m.createFn(ctx, params)
}

func (m *mockRequestService) Get(ctx context.Context, id int64) (*service.RequestDetail, error) {
	return m.getFn(ctx, id)
}
