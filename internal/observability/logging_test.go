package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogContextLayers(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b1")
	outer := WithStage(ctx, "pages")
	inner := WithWorker(WithPage(outer, "guide/index.md"), 2)

	assert.Equal(t, LogContext{BuildID: "b1"}, GetContext(ctx))
	assert.Equal(t, LogContext{BuildID: "b1", Stage: "pages"}, GetContext(outer))
	assert.Equal(t, LogContext{BuildID: "b1", Stage: "pages", Page: "guide/index.md", Worker: 2}, GetContext(inner))
	assert.Empty(t, GetContext(context.Background()).Attrs())
}

func TestContextAttrsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	ctx := WithPage(WithBuildID(context.Background(), "b9"), "a.md")
	WarnContext(ctx, "page failed", slog.String("reason", "boom"))
	DebugContext(context.Background(), "quiet")

	out := buf.String()
	for _, want := range []string{"build_id=b9", "page=a.md", "reason=boom", "level=WARN", "msg=quiet"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "worker=")
}
