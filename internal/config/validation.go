package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Build.Workers < 1 {
		add("build.workers must be at least 1, got %d", c.Build.Workers)
	}
	if c.Output.Directory == "" {
		add("output.directory is required")
	}
	if c.Templates.BaseURL != "" {
		if u, err := url.Parse(c.Templates.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			add("templates.base_url must be an http(s) URL, got %q", c.Templates.BaseURL)
		}
	}
	if c.Events.NATSURL != "" && !strings.Contains(c.Events.NATSURL, "://") {
		add("events.nats_url must include a scheme, got %q", c.Events.NATSURL)
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		add("watch.debounce: %v", err)
	}
	if _, err := c.Watch.IntervalDuration(); err != nil {
		add("watch.interval: %v", err)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		add("logging.level: %v", err)
	}

	if len(problems) == 0 {
		return nil
	}
	return derrors.ConfigError("configuration validation failed: " + strings.Join(problems, "; ")).
		WithContext("problems", problems).
		Build()
}

// DebounceDuration parses watch.debounce; it must be positive.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", w.Debounce)
	}
	return d, nil
}

// IntervalDuration parses watch.interval. Zero means no periodic rebuilds.
func (w WatchConfig) IntervalDuration() (time.Duration, error) {
	if w.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(w.Interval)
	if err != nil {
		return 0, err
	}
	if d < time.Second {
		return 0, fmt.Errorf("must be at least 1s, got %s", w.Interval)
	}
	return d, nil
}

// ParseLevel maps debug|info|warn|error (any case) to a slog level.
func ParseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", raw)
	}
	return level, nil
}
