package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recorder) build(_ context.Context, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
	return nil
}

func (r *recorder) count(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.reasons {
		if got == reason {
			n++
		}
	}
	return n
}

// start runs w until the test ends and waits for the startup build.
func start(t *testing.T, w *Watcher, rec *recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	require.Eventually(t, func() bool { return rec.count(ReasonStartup) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestChangesAreDebounced(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	start(t, New(rec.build, []string{dir}, WithDebounce(100*time.Millisecond)), rec)

	for i := range 5 {
		write(t, filepath.Join(dir, "page.md"), string(rune('a'+i)))
	}
	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.count(ReasonChange))
}

func TestIgnoredAndHiddenPaths(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "site")
	require.NoError(t, os.Mkdir(out, 0o750))
	rec := &recorder{}
	start(t, New(rec.build, []string{dir}, WithDebounce(50*time.Millisecond), WithIgnore(out)), rec)

	write(t, filepath.Join(out, "index.md"), "x")
	write(t, filepath.Join(dir, ".swp"), "x")
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, rec.count(ReasonChange))
}

func TestNewDirectoriesAreWatched(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	start(t, New(rec.build, []string{dir}, WithDebounce(50*time.Millisecond)), rec)

	sub := filepath.Join(dir, "guide")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 1 }, 3*time.Second, 10*time.Millisecond)

	write(t, filepath.Join(sub, "cli.md"), "x")
	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestIntervalRebuilds(t *testing.T) {
	rec := &recorder{}
	w := New(rec.build, []string{t.TempDir()}, WithInterval(50*time.Millisecond))
	start(t, w, rec)
	require.Eventually(t, func() bool { return rec.count(ReasonInterval) >= 2 }, 3*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, w.Builds(), 3)
}

func TestBuildErrorsDoNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	failing := func(ctx context.Context, reason string) error {
		_ = rec.build(ctx, reason)
		return errors.New("broken script")
	}
	start(t, New(failing, []string{dir}, WithDebounce(50*time.Millisecond)), rec)

	write(t, filepath.Join(dir, "a.md"), "x")
	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 1 }, 3*time.Second, 10*time.Millisecond)
	write(t, filepath.Join(dir, "b.md"), "x")
	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestMissingPath(t *testing.T) {
	rec := &recorder{}
	err := New(rec.build, []string{filepath.Join(t.TempDir(), "absent")}).Run(t.Context())
	require.Error(t, err)
	assert.Zero(t, rec.count(ReasonStartup))
}
