package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
)

var buildIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FSStore is a filesystem ObjectStore:
//
//	<base>/
//	  objects/ab/cd1234...           object data
//	  objects/ab/cd1234....meta.json metadata
//	  refs/builds/<build-id>.json    build refs
type FSStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFSStore creates the store layout under basePath.
func NewFSStore(basePath string) (*FSStore, error) {
	for _, dir := range []string{
		filepath.Join(basePath, "objects"),
		filepath.Join(basePath, "refs", "builds"),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &FSStore{basePath: basePath}, nil
}

// Hash returns the content address of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *FSStore) Put(ctx context.Context, obj *Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := Hash(obj.Data)
	if obj.Hash != "" && obj.Hash != hash {
		return "", fmt.Errorf("object hash mismatch: declared %s, computed %s", obj.Hash, hash)
	}

	objectPath := s.objectPath(hash)
	if _, err := os.Stat(objectPath); err == nil {
		meta, err := s.readMetadata(hash)
		if err == nil {
			meta.RefCount++
			meta.LastAccessed = time.Now()
			if err := s.writeMetadata(hash, meta); err != nil {
				return hash, fmt.Errorf("update metadata: %w", err)
			}
		}
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(objectPath), 0o750); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(objectPath, obj.Data, 0o600); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	now := time.Now()
	meta := Metadata{CreatedAt: now, LastAccessed: now, RefCount: 1, Custom: maps.Clone(obj.Metadata.Custom)}
	if meta.Custom == nil {
		meta.Custom = make(map[string]string)
	}
	meta.Custom["object_type"] = string(obj.Type)
	if err := s.writeMetadata(hash, meta); err != nil {
		return hash, fmt.Errorf("write metadata: %w", err)
	}
	return hash, nil
}

func (s *FSStore) Get(ctx context.Context, hash string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validHash(hash) {
		return nil, ErrNotFound{Hash: hash}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// #nosec G304 -- path built from a validated hex hash
	data, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound{Hash: hash}
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	meta, err := s.readMetadata(hash)
	if err != nil {
		meta = Metadata{Custom: map[string]string{}}
	}
	return &Object{
		Hash:     hash,
		Type:     ObjectType(meta.Custom["object_type"]),
		Size:     int64(len(data)),
		Data:     data,
		Metadata: meta,
	}, nil
}

func (s *FSStore) Exists(_ context.Context, hash string) (bool, error) {
	if !validHash(hash) {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.objectPath(hash))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat object: %w", err)
	}
}

func (s *FSStore) Delete(_ context.Context, hash string) error {
	if !validHash(hash) {
		return ErrNotFound{Hash: hash}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUnlocked(hash)
}

func (s *FSStore) List(_ context.Context, objectType ObjectType) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listUnlocked(objectType)
}

func (s *FSStore) Close() error { return nil }

// GC removes every object not referenced by any recorded build and returns
// how many were removed.
func (s *FSStore) GC(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]bool)
	refs, err := os.ReadDir(filepath.Join(s.basePath, "refs", "builds"))
	if err != nil {
		return 0, fmt.Errorf("list build refs: %w", err)
	}
	for _, ref := range refs {
		entries, err := s.readRef(strings.TrimSuffix(ref.Name(), ".json"))
		if err != nil {
			return 0, err
		}
		for _, e := range entries {
			live[e.Hash] = true
		}
	}

	all, err := s.listUnlocked("")
	if err != nil {
		return 0, fmt.Errorf("list objects: %w", err)
	}
	removed := 0
	for _, hash := range all {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if live[hash] {
			continue
		}
		if err := s.deleteUnlocked(hash); err != nil && !IsNotFound(err) {
			return removed, fmt.Errorf("delete object %s: %w", hash, err)
		}
		removed++
	}
	return removed, nil
}

func (s *FSStore) SetBuildRef(_ context.Context, buildID string, entries []RefEntry) error {
	if !buildIDPattern.MatchString(buildID) {
		return fmt.Errorf("invalid build id %q", buildID)
	}
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b RefEntry) int { return strings.Compare(a.Path, b.Path) })
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal build ref: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.refPath(buildID), data, 0o600)
}

// BuildRef returns nil when the build has no ref.
func (s *FSStore) BuildRef(_ context.Context, buildID string) ([]RefEntry, error) {
	if !buildIDPattern.MatchString(buildID) {
		return nil, fmt.Errorf("invalid build id %q", buildID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readRef(buildID)
}

// Checkout writes every object of a recorded build under dir at its path.
func (s *FSStore) Checkout(ctx context.Context, buildID, dir string) error {
	entries, err := s.BuildRef(ctx, buildID)
	if err != nil {
		return err
	}
	if entries == nil {
		return fmt.Errorf("no build ref for %q", buildID)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("open checkout dir: %w", err)
	}
	defer root.Close()

	for _, e := range entries {
		obj, err := s.Get(ctx, e.Hash)
		if err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
		if err := mkdirAllIn(root, filepath.Dir(e.Path)); err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
		if err := writeIn(root, e.Path, obj.Data); err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
	}
	return nil
}

func writeIn(root *os.Root, name string, data []byte) error {
	f, err := root.Create(name)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func mkdirAllIn(root *os.Root, dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if err := mkdirAllIn(root, filepath.Dir(dir)); err != nil {
		return err
	}
	if err := root.Mkdir(dir, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

func (s *FSStore) readRef(buildID string) ([]RefEntry, error) {
	// #nosec G304 -- build id validated against buildIDPattern
	data, err := os.ReadFile(s.refPath(buildID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read build ref: %w", err)
	}
	var entries []RefEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode build ref %s: %w", buildID, err)
	}
	return entries, nil
}

func (s *FSStore) listUnlocked(objectType ObjectType) ([]string, error) {
	var hashes []string
	objectsDir := filepath.Join(s.basePath, "objects")
	err := filepath.WalkDir(objectsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".meta.json") {
			return nil
		}
		rel, err := filepath.Rel(objectsDir, path)
		if err != nil {
			return nil
		}
		hash := strings.ReplaceAll(rel, string(filepath.Separator), "")
		if objectType != "" {
			meta, err := s.readMetadata(hash)
			if err != nil || ObjectType(meta.Custom["object_type"]) != objectType {
				return nil
			}
		}
		hashes = append(hashes, hash)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk objects: %w", err)
	}
	slices.Sort(hashes)
	return hashes, nil
}

func (s *FSStore) deleteUnlocked(hash string) error {
	objectPath := s.objectPath(hash)
	if err := os.Remove(objectPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound{Hash: hash}
		}
		return fmt.Errorf("delete object: %w", err)
	}
	_ = os.Remove(s.metadataPath(hash))
	_ = os.Remove(filepath.Dir(objectPath)) // only succeeds when empty
	return nil
}

func validHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func (s *FSStore) objectPath(hash string) string {
	return filepath.Join(s.basePath, "objects", hash[:2], hash[2:])
}

func (s *FSStore) metadataPath(hash string) string {
	return s.objectPath(hash) + ".meta.json"
}

func (s *FSStore) refPath(buildID string) string {
	return filepath.Join(s.basePath, "refs", "builds", buildID+".json")
}

func (s *FSStore) readMetadata(hash string) (Metadata, error) {
	// #nosec G304 -- path built from a content hash
	data, err := os.ReadFile(s.metadataPath(hash))
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}

func (s *FSStore) writeMetadata(hash string, meta Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metadataPath(hash), data, 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
