package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, 0, adapter.ExitCodeFor(nil))
	for _, err := range []error{
		ScriptError("cannot load script").Build(),
		MissingFileError("input missing").Build(),
		errors.New("boom"),
	} {
		assert.Equal(t, 1, adapter.ExitCodeFor(err), err.Error())
	}
}

func TestCLIErrorAdapterFormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), "Error: boom"},
		{"user error with cause", ScriptError("unknown script").WithCause(errors.New("no such ref")).Build(), "Error: unknown script: no such ref"},
		{"located", MissingFileError("input file does not exist").AtPath("docs/a.md").Build(), "Error: docs/a.md: input file does not exist"},
		{"internal", InternalError("worker crashed").Build(), "Error: worker crashed (use -v for details)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quiet.FormatError(tt.err))
		})
	}

	assert.Contains(t, verbose.FormatError(InternalError("worker crashed").Build()), "[internal:fatal]")
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapterHandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad config").AtPath("x.yaml").Build())

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "x.yaml: bad config")
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "path=x.yaml")

	code = -1
	adapter.HandleError(nil)
	assert.Equal(t, -1, code)
}
