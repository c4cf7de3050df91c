// Package storage is a content-addressed object store for build artifacts.
// Builds record which objects they produced under a ref, so an earlier
// build's output can be listed or checked out again.
package storage

import (
	"context"
	"errors"
	"time"
)

// ObjectStore stores objects by the SHA-256 of their data.
type ObjectStore interface {
	// Put stores obj and returns its hash. Storing existing data again only
	// bumps the reference count.
	Put(ctx context.Context, obj *Object) (hash string, err error)

	// Get returns ErrNotFound when no object has the hash.
	Get(ctx context.Context, hash string) (*Object, error)

	Exists(ctx context.Context, hash string) (bool, error)
	Delete(ctx context.Context, hash string) error

	// List returns hashes of objects of the given type, or of every object
	// when objectType is empty.
	List(ctx context.Context, objectType ObjectType) ([]string, error)

	// SetBuildRef records the objects a build produced, keyed by output path.
	SetBuildRef(ctx context.Context, buildID string, entries []RefEntry) error
	BuildRef(ctx context.Context, buildID string) ([]RefEntry, error)

	Close() error
}

// Object is one stored artifact.
type Object struct {
	Hash     string
	Type     ObjectType
	Size     int64
	Data     []byte
	Metadata Metadata
}

// Metadata is kept next to each object.
type Metadata struct {
	CreatedAt    time.Time         `json:"created_at"`
	LastAccessed time.Time         `json:"last_accessed"`
	RefCount     int               `json:"ref_count"`
	Custom       map[string]string `json:"custom,omitempty"`
}

// RefEntry maps an output path to the object holding its bytes.
type RefEntry struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// ObjectType identifies the kind of stored object.
type ObjectType string

const (
	ObjectTypePage     ObjectType = "page"
	ObjectTypeSidecar  ObjectType = "sidecar"
	ObjectTypeStatic   ObjectType = "static"
	ObjectTypeManifest ObjectType = "manifest"
)

// ErrNotFound is returned when an object doesn't exist.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	return "object not found: " + e.Hash
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
