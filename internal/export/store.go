package export

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docnodes/internal/builder"
	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/observability"
	"git.home.luguber.info/inful/docnodes/internal/storage"
)

// StoreExporter puts every artifact of a build into a content-addressed
// store and records them under a ref named after the build id. Unchanged
// files across builds are stored once.
type StoreExporter struct {
	Store storage.ObjectStore
}

func (s StoreExporter) Export(ctx context.Context, out *builder.BuildOutput) error {
	arts, err := artifacts(out)
	if err != nil {
		return err
	}
	entries := make([]storage.RefEntry, 0, len(arts))
	for _, a := range arts {
		hash, err := s.Store.Put(ctx, &storage.Object{
			Type: a.typ,
			Data: a.data,
			Metadata: storage.Metadata{Custom: map[string]string{
				"path":     a.path,
				"build_id": out.BuildID,
			}},
		})
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "cannot store artifact").
				AtPath(a.path).
				Build()
		}
		entries = append(entries, storage.RefEntry{Path: a.path, Hash: hash})
	}
	if err := s.Store.SetBuildRef(ctx, out.BuildID, entries); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "cannot record build ref").
			WithContext("build_id", out.BuildID).
			Build()
	}
	observability.InfoContext(ctx, "Build stored", slog.Int("objects", len(entries)))
	return nil
}
