// Package watch reruns a build when watched files change and, optionally,
// on a fixed interval.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/logfields"
	"git.home.luguber.info/inful/docnodes/internal/observability"
)

// Reasons passed to BuildFunc.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

const DefaultDebounce = 500 * time.Millisecond

// BuildFunc runs one build. Its error is logged and watching continues.
type BuildFunc func(ctx context.Context, reason string) error

// Watcher serializes builds: a change or tick that arrives while a build
// runs is handled after it.
type Watcher struct {
	paths    []string
	build    BuildFunc
	debounce time.Duration
	interval time.Duration
	ignore   []string

	ticks  chan struct{}
	builds atomic.Int64
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInterval adds a rebuild every d. Zero disables it.
func WithInterval(d time.Duration) Option { return func(w *Watcher) { w.interval = d } }

// WithIgnore skips events below the given paths, typically the output
// directory so an export does not trigger the next build.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

func New(build BuildFunc, paths []string, opts ...Option) *Watcher {
	w := &Watcher{
		paths:    paths,
		build:    build,
		debounce: DefaultDebounce,
		ticks:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Builds returns how many builds have run.
func (w *Watcher) Builds() int { return int(w.builds.Load()) }

// Run builds once, then watches until ctx is done. It only returns an error
// when watching cannot start.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return derrors.FileSystemError("failed to create file watcher").WithCause(err).Build()
	}
	defer fsw.Close()

	for _, p := range w.paths {
		if err := w.addTree(fsw, p); err != nil {
			return err
		}
	}

	if w.interval > 0 {
		sched, err := w.schedule()
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				observability.WarnContext(ctx, "Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	observability.InfoContext(ctx, "Watching for changes",
		slog.Any("paths", w.paths),
		slog.Duration("debounce", w.debounce),
		slog.Duration("interval", w.interval))
	w.rebuild(ctx, ReasonStartup)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// New directories are watched too; errors mean it is a file or already gone.
				_ = w.addTree(fsw, ev.Name)
			}
			observability.DebugContext(ctx, "Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			w.rebuild(ctx, ReasonChange)
		case <-w.ticks:
			w.rebuild(ctx, ReasonInterval)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			observability.ErrorContext(ctx, "File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, derrors.InternalError("failed to create scheduler").WithCause(err).Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.tick),
		gocron.WithName("docnodes-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, derrors.ConfigError("invalid rebuild interval").
			WithCause(err).
			WithContext("interval", w.interval.String()).
			Build()
	}
	sched.Start()
	return sched, nil
}

// tick queues an interval build unless one is already queued.
func (w *Watcher) tick() {
	select {
	case w.ticks <- struct{}{}:
	default:
	}
}

func (w *Watcher) rebuild(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	w.builds.Add(1)
	start := time.Now()
	if err := w.build(ctx, reason); err != nil {
		observability.ErrorContext(ctx, "Rebuild failed",
			slog.String("reason", reason),
			logfields.Duration(time.Since(start)),
			logfields.Error(err))
		return
	}
	observability.InfoContext(ctx, "Rebuilt", slog.String("reason", reason), logfields.Duration(time.Since(start)))
}

// addTree watches root and every directory below it except hidden and
// ignored ones. fsnotify watches are not recursive.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return derrors.FileSystemError("cannot watch path").WithCause(err).AtPath(p).Build()
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (hidden(p) || w.ignored(p)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return derrors.FileSystemError("cannot watch directory").WithCause(err).AtPath(p).Build()
		}
		return nil
	})
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || hidden(ev.Name) || strings.HasSuffix(ev.Name, "~") {
		return false
	}
	return !w.ignored(ev.Name)
}

func (w *Watcher) ignored(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, ig := range w.ignore {
		if abs == ig || strings.HasPrefix(abs, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func hidden(p string) bool {
	base := filepath.Base(p)
	return len(base) > 1 && strings.HasPrefix(base, ".")
}
