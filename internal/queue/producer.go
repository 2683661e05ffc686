package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, task Task) error
	Close() error
}

type redisProducer struct {
	client redis.UniversalClient
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client redis.UniversalClient, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Enqueue appends task to the stream using the same field layout the
// consumer parses and requeues with.
func (p *redisProducer) Enqueue(ctx context.Context, task Task) error {
	msg := Message{TaskType: task.TaskType, RequestID: task.RequestID}
	if task.TraceID != nil {
		msg.TraceID = *task.TraceID
	}
	attempt := max(task.Attempt, 1)

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: messageValues(msg, attempt),
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue request %d: %w", task.RequestID, err)
	}

	p.logger.InfoContext(ctx, "enqueued task",
		"message_id", id,
		"request_id", task.RequestID,
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
