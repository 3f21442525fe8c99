package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent names the emitting package.
	FieldComponent = "component"
	// FieldRunID identifies one ingestion pass.
	FieldRunID = "run_id"
	// FieldPostID identifies the feed post being processed.
	FieldPostID = "post_id"
	// FieldEvent is the roster name of the event.
	FieldEvent = "event_name"
	// FieldRound is the calendar round of the event.
	FieldRound = "round"
	// FieldQuality is the quality tier of a post.
	FieldQuality = "quality"
	// FieldEventType tags a line with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	runIDKey contextKey = iota
	postIDKey
)

// WithRunID returns a context carrying the pass run id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithPostID returns a context carrying the post being processed.
func WithPostID(ctx context.Context, postID string) context.Context {
	return context.WithValue(ctx, postIDKey, postID)
}

// RunIDFromContext returns the pass run id, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := ctx.Value(postIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldPostID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
