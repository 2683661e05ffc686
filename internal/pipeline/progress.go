package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"basegraph.app/scout/internal/flow"
)

const defaultProgressMaxLen = 500

// StatusStream names the Redis stream that carries a request's node events.
func StatusStream(requestID int64) string {
	return fmt.Sprintf("request-status:%d", requestID)
}

// RequestIDFromRunKey extracts the request id from "request:<id>" or
// "fetch:<id>".
func RequestIDFromRunKey(key string) (int64, bool) {
	_, raw, ok := strings.Cut(key, ":")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ProgressPublisher is a flow.Observer writing node events to the
// request's status stream, trimmed to about maxLen entries.
type ProgressPublisher struct {
	client redis.UniversalClient
	maxLen int64
}

func NewProgressPublisher(client redis.UniversalClient, maxLen int64) *ProgressPublisher {
	if maxLen <= 0 {
		maxLen = defaultProgressMaxLen
	}
	return &ProgressPublisher{client: client, maxLen: maxLen}
}

func (p *ProgressPublisher) NodeStatusChanged(ctx context.Context, ev flow.Event) {
	requestID, ok := RequestIDFromRunKey(ev.RunKey)
	if !ok {
		return
	}

	values := map[string]any{
		"run_key": ev.RunKey,
		"node_id": ev.NodeID,
		"stage":   string(ev.Type),
		"status":  string(ev.Status),
	}
	if ev.Err != nil {
		values["error"] = ev.Err.Error()
	}

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StatusStream(requestID),
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		slog.WarnContext(ctx, "publishing node status failed",
			"error", err,
			"run_key", ev.RunKey,
			"node_id", ev.NodeID)
	}
}
