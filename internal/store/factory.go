package store

import (
	"basegraph.app/scout/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Requests() RequestStore {
	return newRequestStore(s.queries)
}

func (s *Stores) Items() ItemStore {
	return newItemStore(s.queries)
}
