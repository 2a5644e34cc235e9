package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/usemin/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID  string
	Document string
	Pipeline string
	Stage    string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// NewBuildID returns a fresh identifier for one build run.
func NewBuildID() string {
	return uuid.NewString()
}

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithDocument adds the path of the document being processed to the context.
func WithDocument(ctx context.Context, path string) context.Context {
	lc := extractLogContext(ctx)
	lc.Document = path
	return context.WithValue(ctx, logContextKey, lc)
}

// WithPipeline adds a pipeline identifier to the context.
func WithPipeline(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.Pipeline = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Document != "" {
		attrs = append(attrs, logfields.Document(lc.Document))
	}
	if lc.Pipeline != "" {
		attrs = append(attrs, logfields.Pipeline(lc.Pipeline))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	return attrs
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelInfo, msg, append(getLogAttrs(ctx), attrs...)...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelWarn, msg, append(getLogAttrs(ctx), attrs...)...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelError, msg, append(getLogAttrs(ctx), attrs...)...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelDebug, msg, append(getLogAttrs(ctx), attrs...)...)
}
