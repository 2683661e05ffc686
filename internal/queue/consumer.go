package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"basegraph.app/scout/common/logger"
	"github.com/redis/go-redis/v9"
)

type ConsumerConfig struct {
	Stream       string        // Redis stream name
	Group        string        // Redis consumer group name
	Consumer     string        // Redis consumer name
	DLQStream    string        // Dead letter queue stream for failed messages
	BatchSize    int64         // Number of messages to process per batch
	Block        time.Duration // How long to block/poll for new messages
	MaxAttempts  int           // Maximum retry attempts before moving to DLQ
	RequeueDelay time.Duration // Delay before retrying failed messages
}

type Message struct {
	ID        string
	TaskType  TaskType
	RequestID int64
	Attempt   int
	TraceID   string
	LastError string
	Raw       redis.XMessage
}

// MessageProcessor processes a queue message.
type MessageProcessor func(ctx context.Context, msg Message) error

type RedisConsumer struct {
	client redis.UniversalClient
	cfg    ConsumerConfig
}

func NewRedisConsumer(client redis.UniversalClient, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Start at "0" so tasks enqueued before the group existed are not skipped.
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group %s on %s: %w", c.cfg.Group, c.cfg.Stream, err)
	}
	return nil
}

// Read returns new tasks for this consumer. Entries that cannot be parsed are
// acked and dropped; redelivering them would fail the same way.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "scout.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// ">" only; entries stuck in the pending list belong to the reclaimer.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			msg, parseErr := ParseMessage(raw)
			if parseErr != nil {
				slog.ErrorContext(ctx, "dropping malformed task",
					"error", parseErr,
					"raw_message_id", raw.ID,
					"stream", c.cfg.Stream)
				if ackErr := c.Ack(ctx, Message{ID: raw.ID, Raw: raw}); ackErr != nil {
					slog.WarnContext(ctx, "failed to ack malformed task", "error", ackErr)
				}
				continue
			}
			messages = append(messages, msg)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read tasks", "count", len(messages), "consumer", c.cfg.Consumer)
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack %s on %s: %w", msg.ID, c.cfg.Stream, err)
	}
	return nil
}

// Requeue appends a copy of msg with the next attempt number and acks the
// original in the same MULTI block, so a crash cannot lose or duplicate it.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	if c.cfg.RequeueDelay > 0 {
		t := time.NewTimer(c.cfg.RequeueDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	next := msg.Attempt + 1
	values := messageValues(msg, next)
	if errMsg != "" {
		values["last_error"] = errMsg
	}
	if err := c.move(ctx, msg, c.cfg.Stream, values); err != nil {
		return fmt.Errorf("requeue: %w", err)
	}

	slog.InfoContext(ctx, "task requeued", "next_attempt", next, "reason", errMsg)
	return nil
}

// SendDLQ parks msg on the dead letter stream and acks it.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	values := messageValues(msg, msg.Attempt)
	values["error"] = errMsg
	if err := c.move(ctx, msg, c.cfg.DLQStream, values); err != nil {
		return fmt.Errorf("dead-letter: %w", err)
	}

	slog.ErrorContext(ctx, "task dead-lettered",
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

func (c *RedisConsumer) move(ctx context.Context, msg Message, to string, values map[string]any) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: to, Values: values})
		pipe.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("moving %s to %s: %w", msg.ID, to, err)
	}
	return nil
}

// ParseMessage decodes a stream entry written by the producer.
func ParseMessage(raw redis.XMessage) (Message, error) {
	f := fields(raw.Values)

	taskType := TaskType(f.str("task_type"))
	if taskType == "" {
		taskType = TaskTypeEnrichRequest
	}
	if taskType != TaskTypeEnrichRequest {
		return Message{}, fmt.Errorf("unknown task_type %q", taskType)
	}

	s, ok := f.lookup("request_id")
	if !ok {
		return Message{}, errors.New("missing request_id")
	}
	requestID, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("parsing request_id: %w", err)
	}

	attempt := 1
	if s, ok := f.lookup("attempt"); ok {
		if attempt, err = strconv.Atoi(s); err != nil {
			return Message{}, fmt.Errorf("parsing attempt: %w", err)
		}
		if attempt <= 0 {
			attempt = 1
		}
	}

	return Message{
		ID:        raw.ID,
		TaskType:  taskType,
		RequestID: requestID,
		Attempt:   attempt,
		TraceID:   f.str("trace_id"),
		LastError: f.str("last_error"),
		Raw:       raw,
	}, nil
}

// fields reads stream values, which go-redis returns as strings.
type fields map[string]any

func (f fields) lookup(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

func (f fields) str(key string) string {
	s, _ := f.lookup(key)
	return s
}

func messageValues(msg Message, attempt int) map[string]any {
	values := map[string]any{
		"task_type":  string(msg.TaskType),
		"request_id": msg.RequestID,
		"attempt":    attempt,
	}
	if msg.TaskType == "" {
		values["task_type"] = string(TaskTypeEnrichRequest)
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	return values
}
