package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"basegraph.app/scout/common/id"
	"basegraph.app/scout/internal/flow"
	"basegraph.app/scout/internal/pipeline"
	"basegraph.app/scout/internal/stage"
)

// EventsHandler streams a request's node status events as server-sent
// events.
type EventsHandler struct {
	redis redis.UniversalClient
	block time.Duration
}

func NewEventsHandler(client redis.UniversalClient) *EventsHandler {
	return &EventsHandler{redis: client, block: 25 * time.Second}
}

// Stream replays the request's status stream from last_id (default: the
// beginning) and follows it. It ends after the notify node settles or any
// node of the request's tree fails.
func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	if h.redis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "redis not configured"})
		return
	}

	requestID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	stream := pipeline.StatusStream(requestID)
	lastID := c.Query("last_id")
	if lastID == "" {
		lastID = "0"
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	setSSEHeaders(c.Writer)
	sseWrite(c.Writer, "ping", "ready")
	flusher.Flush()

	for {
		if ctx.Err() != nil {
			return
		}

		res, err := h.redis.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Block:   h.block,
			Count:   100,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				sseWrite(c.Writer, "ping", time.Now().UTC().Format(time.RFC3339Nano))
				flusher.Flush()
				continue
			}
			if ctx.Err() != nil {
				return
			}
			sseWrite(c.Writer, "error", map[string]string{"error": err.Error()})
			flusher.Flush()
			return
		}

		for _, streamRes := range res {
			for _, msg := range streamRes.Messages {
				lastID = msg.ID
				sseWrite(c.Writer, "status", statusEvent(msg))
				flusher.Flush()
				if finished(msg.Values) {
					sseWrite(c.Writer, "done", "")
					flusher.Flush()
					return
				}
			}
		}
	}
}

func statusEvent(msg redis.XMessage) map[string]any {
	out := make(map[string]any, len(msg.Values)+1)
	for k, v := range msg.Values {
		out[k] = v
	}
	out["id"] = msg.ID
	return out
}

// finished reports whether the event closes the request's run.
func finished(values map[string]any) bool {
	status := fmt.Sprint(values["status"])
	if status == string(flow.NodeStatusFailed) {
		return true
	}
	return status == string(flow.NodeStatusCompleted) && fmt.Sprint(values["stage"]) == string(stage.TypeNotify)
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

func sseWrite(w http.ResponseWriter, event string, data any) {
	payload := marshalPayload(data)
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(payload, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}

func marshalPayload(data any) string {
	switch payload := data.(type) {
	case string:
		return payload
	case []byte:
		return string(payload)
	default:
		bytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(bytes)
	}
}
