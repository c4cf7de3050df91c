package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "docnodes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "build:\n  script: site.yaml\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "site.yaml", cfg.Build.Script)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Build.Workers)
	assert.Equal(t, "site", cfg.Output.Directory)
	assert.Equal(t, "origin", cfg.Repo.Remote)
	assert.Equal(t, []string{"."}, cfg.Watch.Paths)
	d, err := cfg.Watch.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
	assert.Empty(t, cfg.Events.Subject)
}

func TestLoadExpandsEnvFromDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCNODES_TEST_OUT=from-dotenv\nDOCNODES_TEST_NATS=nats://bus:4222\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("DOCNODES_TEST_OUT=from-local\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("DOCNODES_TEST_OUT")
		_ = os.Unsetenv("DOCNODES_TEST_NATS")
	})

	path := writeConfig(t, dir, "output:\n  directory: ${DOCNODES_TEST_OUT}\nevents:\n  nats_url: ${DOCNODES_TEST_NATS}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-local", cfg.Output.Directory)
	assert.Equal(t, "nats://bus:4222", cfg.Events.NATSURL)
	assert.Equal(t, "docnodes.build", cfg.Events.Subject)
}

func TestLoadProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCNODES_TEST_LEVEL=error\n"), 0o600))
	t.Setenv("DOCNODES_TEST_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, dir, "logging:\n  level: ${DOCNODES_TEST_LEVEL}\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))

	_, err = Load(writeConfig(t, dir, "build:\n  scirpt: typo.yaml\n"))
	require.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeConfig(t, dir, "build: [\n"))
	require.Error(t, err)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := &Config{
		Templates: TemplatesConfig{BaseURL: "ftp://example.com"},
		Watch:     WatchConfig{Debounce: "soon", Interval: "10ms"},
		Logging:   LoggingConfig{Level: "loud"},
	}
	ApplyDefaults(cfg)
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, derrors.IsFatal(err))

	ce, ok := derrors.AsClassified(err)
	require.True(t, ok)
	problems, _ := ce.Context().Get("problems")
	assert.Len(t, problems, 4)
}

func TestIntervalDuration(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"5m", 5 * time.Minute, false},
		{"500ms", 0, true},
		{"often", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			d, err := WatchConfig{Interval: tc.raw}.IntervalDuration()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, d)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("verbose")
	require.Error(t, err)
}
