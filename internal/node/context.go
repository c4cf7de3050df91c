package node

import (
	"context"
	"sync"
)

type ctxKey int

const (
	strictKey ctxKey = iota
	registryKey
	failuresKey
)

// WithStrict marks the render as strict: variants with a configurable fallback
// (missing include targets) fail hard instead of rendering inline error text.
func WithStrict(ctx context.Context, strict bool) context.Context {
	return context.WithValue(ctx, strictKey, strict)
}

// Strict reports whether strict rendering is enabled.
func Strict(ctx context.Context) bool {
	v, _ := ctx.Value(strictKey).(bool)
	return v
}

// WithRegistry carries the build-scoped name registry.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey, r)
}

// RegistryFrom returns the registry in ctx, or nil.
func RegistryFrom(ctx context.Context) *Registry {
	r, _ := ctx.Value(registryKey).(*Registry)
	return r
}

// Failure is a node render failure recovered by Embed.
type Failure struct {
	Kind string
	Name string
	Err  error
}

// Failures collects recovered failures for one render scope, usually a page.
type Failures struct {
	mu    sync.Mutex
	items []Failure
}

func (f *Failures) record(item Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
}

// Items returns the recorded failures in occurrence order.
func (f *Failures) Items() []Failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Failure(nil), f.items...)
}

func (f *Failures) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// WithFailures installs a collector that Embed reports recovered failures to.
func WithFailures(ctx context.Context, f *Failures) context.Context {
	return context.WithValue(ctx, failuresKey, f)
}

// RecordFailure reports a recovered failure to the collector in ctx, if any.
func RecordFailure(ctx context.Context, f Failure) {
	if c := failuresFrom(ctx); c != nil {
		c.record(f)
	}
}

func failuresFrom(ctx context.Context) *Failures {
	f, _ := ctx.Value(failuresKey).(*Failures)
	return f
}
