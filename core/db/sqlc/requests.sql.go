package sqlc

import (
	"context"
)

const createRequest = `-- name: CreateRequest :one
INSERT INTO requests (id, topic, status)
VALUES ($1, $2, $3)
RETURNING id, topic, status, error, created_at, updated_at
`

type CreateRequestParams struct {
	ID     int64  `json:"id"`
	Topic  string `json:"topic"`
	Status string `json:"status"`
}

func (q *Queries) CreateRequest(ctx context.Context, arg CreateRequestParams) (Request, error) {
	row := q.db.QueryRow(ctx, createRequest, arg.ID, arg.Topic, arg.Status)
	var i Request
	err := row.Scan(
		&i.ID,
		&i.Topic,
		&i.Status,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getRequest = `-- name: GetRequest :one
SELECT id, topic, status, error, created_at, updated_at
FROM requests
WHERE id = $1
`

func (q *Queries) GetRequest(ctx context.Context, id int64) (Request, error) {
	row := q.db.QueryRow(ctx, getRequest, id)
	var i Request
	err := row.Scan(
		&i.ID,
		&i.Topic,
		&i.Status,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const transitionRequestStatus = `-- name: TransitionRequestStatus :execrows
UPDATE requests
SET status = $1, error = $2, updated_at = now()
WHERE id = $3 AND status = ANY($4::text[])
`

type TransitionRequestStatusParams struct {
	ToStatus     string   `json:"to_status"`
	Error        *string  `json:"error"`
	ID           int64    `json:"id"`
	FromStatuses []string `json:"from_statuses"`
}

func (q *Queries) TransitionRequestStatus(ctx context.Context, arg TransitionRequestStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, transitionRequestStatus,
		arg.ToStatus,
		arg.Error,
		arg.ID,
		arg.FromStatuses,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
