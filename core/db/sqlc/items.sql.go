package sqlc

import (
	"context"
)

const countItemsByRequest = `-- name: CountItemsByRequest :one
SELECT count(*) FROM items WHERE request_id = $1
`

func (q *Queries) CountItemsByRequest(ctx context.Context, requestID int64) (int64, error) {
	row := q.db.QueryRow(ctx, countItemsByRequest, requestID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type InsertItemsParams struct {
	ID                 int64    `json:"id"`
	RequestID          int64    `json:"request_id"`
	Position           int32    `json:"position"`
	Title              string   `json:"title"`
	Url                string   `json:"url"`
	Price              *float64 `json:"price"`
	OriginalPrice      *float64 `json:"original_price"`
	Description        *string  `json:"description"`
	Author             *string  `json:"author"`
	Summary            *string  `json:"summary"`
	DiscountAmount     *float64 `json:"discount_amount"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	RelevanceScore     *float64 `json:"relevance_score"`
	ValueScore         *float64 `json:"value_score"`
}

const listItemsByRequest = `-- name: ListItemsByRequest :many
SELECT id, request_id, position, title, url, price, original_price, description, author,
       summary, discount_amount, discount_percentage, relevance_score, value_score, created_at
FROM items
WHERE request_id = $1
ORDER BY position
`

func (q *Queries) ListItemsByRequest(ctx context.Context, requestID int64) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItemsByRequest, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(
			&i.ID,
			&i.RequestID,
			&i.Position,
			&i.Title,
			&i.Url,
			&i.Price,
			&i.OriginalPrice,
			&i.Description,
			&i.Author,
			&i.Summary,
			&i.DiscountAmount,
			&i.DiscountPercentage,
			&i.RelevanceScore,
			&i.ValueScore,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
