// Package observability carries build-scoped log context (build id, stage, page, worker)
// through context.Context so deep render code can log without threading loggers around.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docnodes/internal/logfields"
)

// LogContext is the build position attached to a context.
type LogContext struct {
	BuildID string
	Stage   string
	Page    string
	Worker  int
}

type logContextKey struct{}

func with(ctx context.Context, set func(*LogContext)) context.Context {
	lc := GetContext(ctx)
	set(&lc)
	return context.WithValue(ctx, logContextKey{}, lc)
}

// WithBuildID tags every log line under ctx with the build id.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.BuildID = buildID })
}

// WithStage records the build phase.
func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.Stage = stage })
}

// WithPage records the resolved output path being rendered.
func WithPage(ctx context.Context, path string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.Page = path })
}

// WithWorker records which pool slot renders the current page (1-based).
func WithWorker(ctx context.Context, worker int) context.Context {
	return with(ctx, func(lc *LogContext) { lc.Worker = worker })
}

// GetContext returns the log context stored in ctx, or the zero value.
func GetContext(ctx context.Context) LogContext {
	lc, _ := ctx.Value(logContextKey{}).(LogContext)
	return lc
}

// Attrs returns the non-empty fields of lc as slog attributes.
func (lc LogContext) Attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 4)
	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.Page != "" {
		attrs = append(attrs, logfields.Page(lc.Page))
	}
	if lc.Worker > 0 {
		attrs = append(attrs, logfields.Worker(lc.Worker))
	}
	return attrs
}

func log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	slog.LogAttrs(ctx, level, msg, append(GetContext(ctx).Attrs(), attrs...)...)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelError, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelDebug, msg, attrs)
}
