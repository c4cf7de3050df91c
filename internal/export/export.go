// Package export writes a BuildOutput somewhere: a directory tree, a
// content-addressed store, or several of those at once.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/docnodes/internal/builder"
	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/frontmatter"
	"git.home.luguber.info/inful/docnodes/internal/resources"
	"git.home.luguber.info/inful/docnodes/internal/storage"
)

const (
	ResourcesFile = "resources.json"
	NavFile       = "nav.json"
	SidecarSuffix = ".meta.yaml"
)

// Exporter persists one build.
type Exporter interface {
	Export(ctx context.Context, out *builder.BuildOutput) error
}

// Multi runs every exporter in order and joins their errors.
type Multi []Exporter

func (m Multi) Export(ctx context.Context, out *builder.BuildOutput) error {
	var errs []error
	for _, e := range m {
		if err := e.Export(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resourceManifest is the shape of resources.json.
type resourceManifest struct {
	Global *resources.Resources            `json:"global"`
	Files  map[string]*resources.Resources `json:"files"`
}

// artifact is one file of an export, with its path relative to the export root.
type artifact struct {
	path string
	data []byte
	typ  storage.ObjectType
}

// artifacts lists everything an export consists of: each file followed by
// its sidecar, then static attachments, then the two manifests.
func artifacts(out *builder.BuildOutput) ([]artifact, error) {
	if out == nil {
		return nil, derrors.InternalError("nothing to export").Build()
	}
	var arts []artifact
	for _, p := range out.Paths() {
		body := []byte(out.Files[p])
		sidecar, err := sidecarBytes(out.Metadata[p], body)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryInternal, "cannot serialize sidecar").
				AtPath(p).
				Build()
		}
		arts = append(arts,
			artifact{path: p, data: body, typ: storage.ObjectTypePage},
			artifact{path: p + SidecarSuffix, data: sidecar, typ: storage.ObjectTypeSidecar})
	}

	for _, sf := range out.Static {
		data := sf.Data
		if data == nil {
			var err error
			// #nosec G304 -- static sources are declared by the build script.
			if data, err = os.ReadFile(sf.Source); err != nil {
				return nil, derrors.FileSystemError("cannot read static file source").
					WithCause(err).
					WithContext("source", sf.Source).
					WithContext("target", sf.Target).
					Build()
			}
		}
		arts = append(arts, artifact{path: sf.Target, data: data, typ: storage.ObjectTypeStatic})
	}

	res, err := json.MarshalIndent(resourceManifest{Global: out.Global, Files: out.Resources}, "", "  ")
	if err != nil {
		return nil, err
	}
	navJSON, err := json.MarshalIndent(out.Nav, "", "  ")
	if err != nil {
		return nil, err
	}
	arts = append(arts,
		artifact{path: ResourcesFile, data: append(res, '\n'), typ: storage.ObjectTypeManifest},
		artifact{path: NavFile, data: append(navJSON, '\n'), typ: storage.ObjectTypeManifest})

	seen := make(map[string]bool, len(arts))
	for _, a := range arts {
		if !filepath.IsLocal(filepath.FromSlash(a.path)) || path.Clean(a.path) != a.path {
			return nil, derrors.ValidationError("export path escapes the output root").
				AtPath(a.path).
				Build()
		}
		if seen[a.path] {
			return nil, derrors.ValidationError("export path written twice").
				AtPath(a.path).
				Build()
		}
		seen[a.path] = true
	}
	return arts, nil
}

func sidecarBytes(meta map[string]any, body []byte) ([]byte, error) {
	fields, err := frontmatter.WithFingerprint(meta, body)
	if err != nil {
		return nil, err
	}
	return frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
}
