package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment so a request id set once at the top of a run
// shows up on every log line emitted by the stages below it.
type LogFields struct {
	RequestID *int64  // Enrichment request ID
	NodeID    *int64  // Flow node currently executing
	Stage     *string // Stage type of the executing node (e.g. "enrich-item-batch")
	MessageID *string // Redis stream message ID
	Attempt   *int    // Queue delivery attempt
	Component string  // Component name (OTel semantic convention style, e.g. "scout.flow.scheduler")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.RequestID != nil {
		result.RequestID = next.RequestID
	}
	if next.NodeID != nil {
		result.NodeID = next.NodeID
	}
	if next.Stage != nil {
		result.Stage = next.Stage
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Attempt != nil {
		result.Attempt = next.Attempt
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{RequestID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
