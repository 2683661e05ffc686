package service

import (
	"basegraph.app/scout/internal/queue"
	"basegraph.app/scout/internal/store"
)

type Services struct {
	stores   *store.Stores
	producer queue.Producer
}

func NewServices(stores *store.Stores, producer queue.Producer) *Services {
	return &Services{stores: stores, producer: producer}
}

func (s *Services) Requests() RequestService {
	return NewRequestService(s.stores.Requests(), s.stores.Items(), s.producer)
}
