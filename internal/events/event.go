// Package events publishes build lifecycle events to pluggable sinks: a
// SQLite build history and a NATS subject for downstream consumers.
package events

import (
	"encoding/json"
	"time"
)

// Build lifecycle event types.
const (
	TypeBuildStarted   = "build.started"
	TypePageRendered   = "page.rendered"
	TypePageFailed     = "page.failed"
	TypeBuildCompleted = "build.completed"
)

// Event is one build lifecycle record. Data carries type-specific fields and
// is stored as JSON.
type Event struct {
	ID        int64          `json:"id,omitempty"`
	BuildID   string         `json:"build_id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Path      string         `json:"path,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func newEvent(buildID, typ, path string, data map[string]any) Event {
	return Event{BuildID: buildID, Type: typ, Timestamp: time.Now().UTC(), Path: path, Data: data}
}

// BuildStarted records the start of a build over pages pages with workers workers.
func BuildStarted(buildID string, pages, workers int) Event {
	return newEvent(buildID, TypeBuildStarted, "", map[string]any{"pages": pages, "workers": workers})
}

// PageRendered records a successful page render.
func PageRendered(buildID, path string, d time.Duration) Event {
	return newEvent(buildID, TypePageRendered, path, map[string]any{"duration_ms": d.Milliseconds()})
}

// PageFailed records a page whose render failed.
func PageFailed(buildID, path string, err error) Event {
	return newEvent(buildID, TypePageFailed, path, map[string]any{"error": err.Error()})
}

// BuildCompleted records the final tally of a build.
func BuildCompleted(buildID, outcome string, files, failures int, d time.Duration) Event {
	return newEvent(buildID, TypeBuildCompleted, "", map[string]any{
		"outcome":     outcome,
		"files":       files,
		"failures":    failures,
		"duration_ms": d.Milliseconds(),
	})
}

// Marshal returns the JSON wire form of e.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
