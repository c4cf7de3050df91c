// Package config loads docnodes.yaml. Values may reference environment
// variables as ${VAR}; .env and .env.local files next to the config or in the
// working directory are loaded first. Command-line flags override the result.
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "docnodes.yaml"

// Config is the full docnodes configuration.
type Config struct {
	Build     BuildConfig     `yaml:"build"`
	Output    OutputConfig    `yaml:"output"`
	Repo      RepoConfig      `yaml:"repo"`
	Templates TemplatesConfig `yaml:"templates"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BuildConfig controls the DocBuilder run.
type BuildConfig struct {
	Script          string         `yaml:"script"`           // registered name or path to a YAML tree script
	Workers         int            `yaml:"workers"`          // page worker pool size; 0 = GOMAXPROCS
	RenderTemplates bool           `yaml:"render_templates"` // macro-expand page markdown
	Strict          bool           `yaml:"strict"`           // missing includes fail the build
	Vars            map[string]any `yaml:"vars"`             // template variables for every environment
}

// OutputConfig describes where exports go.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // remove the directory before writing
	Store     string `yaml:"store"` // optional content-addressed store path
}

// RepoConfig feeds repository facts into page metadata.
type RepoConfig struct {
	URL    string `yaml:"url"`    // overrides the detected remote URL
	Path   string `yaml:"path"`   // repository to inspect; default "."
	Remote string `yaml:"remote"` // remote name; default origin
	Detect bool   `yaml:"detect"` // read URL and commit from git
}

// TemplatesConfig lists where template partials are loaded from.
type TemplatesConfig struct {
	Dirs    []string `yaml:"dirs"`
	BaseURL string   `yaml:"base_url"` // remote fallback for partials not found locally
}

// EventsConfig selects build event sinks. Both are optional.
type EventsConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	NATSURL    string `yaml:"nats_url"`
	Subject    string `yaml:"subject"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Paths    []string `yaml:"paths"`
	Debounce string   `yaml:"debounce"` // e.g. "500ms"
	Interval string   `yaml:"interval"` // periodic rebuild, "" disables
}

// LoggingConfig sets the default log level; --verbose and DOCNODES_LOG_LEVEL win.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads path, applies defaults and validates. An empty path falls back
// to DefaultFile when it exists, otherwise to pure defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := loadEnvFiles(filepath.Dir(path)); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to load .env file").Fatal().Build()
	}

	cfg := &Config{}
	// #nosec G304 -- config path comes from the command line
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Parse(data, cfg); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to parse configuration").
				AtPath(path).
				Fatal().
				Build()
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case errors.Is(err, fs.ErrNotExist):
		return nil, derrors.ConfigError("configuration file not found").AtPath(path).Build()
	default:
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to read configuration").
			AtPath(path).
			Fatal().
			Build()
	}

	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands ${VAR} references and decodes data into cfg. Unknown keys
// are rejected.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
