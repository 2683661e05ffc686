package sqlc

import (
	"context"
)

// iteratorForInsertItems implements pgx.CopyFromSource.
type iteratorForInsertItems struct {
	rows                 []InsertItemsParams
	skippedFirstNextCall bool
}

func (r *iteratorForInsertItems) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForInsertItems) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].ID,
		r.rows[0].RequestID,
		r.rows[0].Position,
		r.rows[0].Title,
		r.rows[0].Url,
		r.rows[0].Price,
		r.rows[0].OriginalPrice,
		r.rows[0].Description,
		r.rows[0].Author,
		r.rows[0].Summary,
		r.rows[0].DiscountAmount,
		r.rows[0].DiscountPercentage,
		r.rows[0].RelevanceScore,
		r.rows[0].ValueScore,
	}, nil
}

func (r iteratorForInsertItems) Err() error {
	return nil
}

func (q *Queries) InsertItems(ctx context.Context, arg []InsertItemsParams) (int64, error) {
	return q.db.CopyFrom(ctx, []string{"items"}, []string{"id", "request_id", "position", "title", "url", "price", "original_price", "description", "author", "summary", "discount_amount", "discount_percentage", "relevance_score", "value_score"}, &iteratorForInsertItems{rows: arg})
}
