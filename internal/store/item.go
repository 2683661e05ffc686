package store

import (
	"context"

	"basegraph.app/scout/core/db/sqlc"
	"basegraph.app/scout/internal/model"
)

type itemStore struct {
	queries *sqlc.Queries
}

func newItemStore(queries *sqlc.Queries) ItemStore {
	return &itemStore{queries: queries}
}

// InsertBatch writes all rows with a single COPY.
func (s *itemStore) InsertBatch(ctx context.Context, items []model.Item) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([]sqlc.InsertItemsParams, len(items))
	for i, it := range items {
		rows[i] = sqlc.InsertItemsParams{
			ID:                 it.ID,
			RequestID:          it.RequestID,
			Position:           int32(it.Position),
			Title:              it.Title,
			Url:                it.URL,
			Price:              it.Price,
			OriginalPrice:      it.OriginalPrice,
			Description:        it.Description,
			Author:             it.Author,
			Summary:            it.Summary,
			DiscountAmount:     it.DiscountAmount,
			DiscountPercentage: it.DiscountPercentage,
			RelevanceScore:     it.RelevanceScore,
			ValueScore:         it.ValueScore,
		}
	}
	return s.queries.InsertItems(ctx, rows)
}

func (s *itemStore) ListByRequest(ctx context.Context, requestID int64) ([]model.Item, error) {
	rows, err := s.queries.ListItemsByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItemModel(row))
	}
	return items, nil
}

func (s *itemStore) CountByRequest(ctx context.Context, requestID int64) (int64, error) {
	return s.queries.CountItemsByRequest(ctx, requestID)
}

func toItemModel(row sqlc.Item) model.Item {
	return model.Item{
		ID:                 row.ID,
		RequestID:          row.RequestID,
		Position:           int(row.Position),
		Title:              row.Title,
		URL:                row.Url,
		Price:              row.Price,
		OriginalPrice:      row.OriginalPrice,
		Description:        row.Description,
		Author:             row.Author,
		Summary:            row.Summary,
		DiscountAmount:     row.DiscountAmount,
		DiscountPercentage: row.DiscountPercentage,
		RelevanceScore:     row.RelevanceScore,
		ValueScore:         row.ValueScore,
		CreatedAt:          row.CreatedAt,
	}
}
