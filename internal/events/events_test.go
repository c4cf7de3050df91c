package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Sink = Nop{}
	_ Sink = Multi{}
	_ Sink = (*Memory)(nil)
	_ Sink = (*SQLiteSink)(nil)
	_ Sink = (*NATSSink)(nil)
)

func TestSQLiteSinkRoundTrip(t *testing.T) {
	sink, err := NewSQLiteSink(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	ctx := t.Context()
	require.NoError(t, sink.Emit(ctx, BuildStarted("b1", 2, 4)))
	require.NoError(t, sink.Emit(ctx, PageRendered("b1", "guide/a.md", 12*time.Millisecond)))
	require.NoError(t, sink.Emit(ctx, PageFailed("b1", "guide/b.md", errors.New("boom"))))
	require.NoError(t, sink.Emit(ctx, BuildStarted("b2", 1, 1)))

	got, err := sink.ByBuild(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, TypeBuildStarted, got[0].Type)
	assert.InDelta(t, 2, got[0].Data["pages"], 0)
	assert.Equal(t, "guide/a.md", got[1].Path)
	assert.Equal(t, TypePageFailed, got[2].Type)
	assert.Equal(t, "boom", got[2].Data["error"])
	assert.Less(t, got[0].ID, got[1].ID)

	builds, err := sink.Builds(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1"}, builds)
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	a, b := &Memory{}, &Memory{}
	m := Multi{a, Nop{}, b}
	require.NoError(t, m.Emit(t.Context(), BuildCompleted("b1", "success", 3, 0, time.Second)))
	assert.Equal(t, []string{TypeBuildCompleted}, a.Types())
	assert.Equal(t, []string{TypeBuildCompleted}, b.Types())

	closed, err := NewSQLiteSink(":memory:")
	require.NoError(t, err)
	require.NoError(t, closed.Close())
	err = Multi{a, closed}.Emit(t.Context(), BuildStarted("b2", 0, 1))
	require.Error(t, err)
	assert.Len(t, a.Events(), 2)
}

func TestEventWireShape(t *testing.T) {
	e := PageFailed("b1", "a.md", errors.New("nope"))
	data, err := e.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"page.failed"`)
	assert.Contains(t, string(data), `"path":"a.md"`)
	assert.NotContains(t, string(data), `"id"`)
}

func TestNATSSubjects(t *testing.T) {
	s := &NATSSink{prefix: subjectPrefix("")}
	assert.Equal(t, "docnodes.build.page.failed", s.Subject(TypePageFailed))
	s = &NATSSink{prefix: subjectPrefix("ci.docs.")}
	assert.Equal(t, "ci.docs.build.started", s.Subject(TypeBuildStarted))
}

func TestNATSSinkConnectFailure(t *testing.T) {
	_, err := NewNATSSink("nats://127.0.0.1:1", "")
	require.Error(t, err)
}
