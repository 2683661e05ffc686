package worker

import (
	"context"

	"basegraph.app/scout/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// RequestProcessor runs one request to a terminal status.
type RequestProcessor interface {
	Process(ctx context.Context, requestID int64) error
}
