// Package version carries build-time version information.
package version

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/docnodes/internal/version.Version=v0.3.0".
var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the --version output.
func String() string {
	s := "docnodes " + Version
	if GitCommit != "unknown" {
		s += " (" + GitCommit + ")"
	}
	if BuildTime != "unknown" {
		s += " built " + BuildTime
	}
	return s
}
