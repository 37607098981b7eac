package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log record emitted with the enriched context, so
// a pipeline run only has to state the sender and event once.
type LogFields struct {
	EventID   *int64  // Snowflake ID assigned when the message was ingested
	MessageID *string // Redis stream message ID
	SenderID  *string // Platform-specific sender identifier
	Platform  *string // "discord" or "gitlab"
	ChannelID *string // Channel or project the message was posted in
	EventType *string // e.g. "message_created", "command"
	Component string  // e.g. "grammar.pipeline", "grammar.worker"
}

// WithLogFields enriches ctx; newer non-nil/non-empty values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	return context.WithValue(ctx, logFieldsKey, mergeFields(GetLogFields(ctx), fields))
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing
	pick(&result.EventID, next.EventID)
	pick(&result.MessageID, next.MessageID)
	pick(&result.SenderID, next.SenderID)
	pick(&result.Platform, next.Platform)
	pick(&result.ChannelID, next.ChannelID)
	pick(&result.EventType, next.EventType)
	if next.Component != "" {
		result.Component = next.Component
	}
	return result
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

// Ptr is a helper to create a pointer from a value.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to maxLen bytes, appending "..." if anything was cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
