package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyPage       = "page"
	KeyCategory   = "category"
	KeyFile       = "file"
	KeyKind       = "kind"
	KeyNode       = "node"
	KeyTemplate   = "template"
	KeyArgs       = "args"
	KeyWorker     = "worker"
	KeyWorkers    = "workers"
	KeyPages      = "pages"
	KeyNavs       = "navs"
	KeyExtension  = "extension"
	KeyScript     = "script"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Node(n string) slog.Attr         { return slog.String(KeyNode, n) }
func Template(t string) slog.Attr     { return slog.String(KeyTemplate, t) }
func Args(a any) slog.Attr            { return slog.Any(KeyArgs, a) }
func Worker(id int) slog.Attr         { return slog.Int(KeyWorker, id) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Navs(n int) slog.Attr            { return slog.Int(KeyNavs, n) }
func Extension(name string) slog.Attr { return slog.String(KeyExtension, name) }
func Script(ref string) slog.Attr     { return slog.String(KeyScript, ref) }

// Duration reports d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
