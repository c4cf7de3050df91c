package config

import "runtime"

const (
	defaultOutputDir = "site"
	defaultDebounce  = "500ms"
	defaultSubject   = "docnodes.build"
	defaultLogLevel  = "info"
)

// ApplyDefaults fills every unset field that has a default.
func ApplyDefaults(cfg *Config) {
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	if cfg.Repo.Path == "" {
		cfg.Repo.Path = "."
	}
	if cfg.Repo.Remote == "" {
		cfg.Repo.Remote = "origin"
	}
	if cfg.Events.NATSURL != "" && cfg.Events.Subject == "" {
		cfg.Events.Subject = defaultSubject
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce
	}
	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{"."}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
}
