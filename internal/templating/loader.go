package templating

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

// Loader resolves template names to template source.
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

func notFound(name string) error {
	return derrors.MissingFileError("template not found").WithContext("template", name).Build()
}

// MapLoader serves templates from memory.
type MapLoader map[string]string

func (m MapLoader) Load(_ context.Context, name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", notFound(name)
	}
	return src, nil
}

// FSLoader reads templates from any fs.FS, embedded or on disk.
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) Load(_ context.Context, name string) (string, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if !fs.ValidPath(name) {
		return "", derrors.NewError(derrors.CategoryValidation, "invalid template path").WithContext("template", name).Build()
	}
	data, err := fs.ReadFile(l.FS, name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", notFound(name)
	}
	if err != nil {
		return "", derrors.FileSystemError("cannot read template").WithCause(err).WithContext("template", name).Build()
	}
	return string(data), nil
}

// DirLoader reads templates below dir.
func DirLoader(dir string) FSLoader {
	return FSLoader{FS: os.DirFS(dir)}
}

// HTTPLoader fetches templates relative to BaseURL.
type HTTPLoader struct {
	BaseURL string
	Client  *http.Client
}

func (l HTTPLoader) Load(ctx context.Context, name string) (string, error) {
	base, err := ValidateURL(l.BaseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil || ref.IsAbs() {
		return "", derrors.NewError(derrors.CategoryValidation, "invalid template name").WithContext("template", name).Build()
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	data, _, err := Fetch(ctx, l.Client, base.ResolveReference(ref).String())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ChainLoader tries loaders in order and returns the first hit. Only a
// not-found result falls through to the next loader.
type ChainLoader []Loader

func (c ChainLoader) Load(ctx context.Context, name string) (string, error) {
	for _, l := range c {
		if l == nil {
			continue
		}
		src, err := l.Load(ctx, name)
		if err == nil {
			return src, nil
		}
		if !derrors.HasCategory(err, derrors.CategoryNotFound) {
			return "", err
		}
	}
	return "", notFound(name)
}
