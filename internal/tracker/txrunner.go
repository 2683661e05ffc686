package tracker

import (
	"context"

	"basegraph.app/scout/core/db"
	"basegraph.app/scout/core/db/sqlc"
	"basegraph.app/scout/internal/store"
)

// StoreProvider exposes the stores a request transition touches.
type StoreProvider interface {
	Requests() store.RequestStore
	Items() store.ItemStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		return fn(store.NewStores(q))
	})
}
