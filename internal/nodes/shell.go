package nodes

import (
	"context"
	"os/exec"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/node"
)

// DefaultShellTimeout bounds a shell node when no timeout is set.
const DefaultShellTimeout = 30 * time.Second

// Shell runs a command at render time and shows its combined output as a
// code block. The command is not run through a shell interpreter.
type Shell struct {
	node.Base
	command     []string
	dir         string
	lang        string
	timeout     time.Duration
	showCommand bool
}

func NewShell(command []string, opts ...node.Option) *Shell {
	s := &Shell{command: command, lang: "text", timeout: DefaultShellTimeout}
	s.Init(s, "shell", opts...)
	return s
}

func (s *Shell) InDir(dir string) *Shell {
	s.dir = dir
	return s
}

func (s *Shell) WithLang(lang string) *Shell {
	s.lang = lang
	return s
}

func (s *Shell) WithTimeout(d time.Duration) *Shell {
	s.timeout = d
	return s
}

// ShowCommand prefixes the output with the command line.
func (s *Shell) ShowCommand(on bool) *Shell {
	s.showCommand = on
	return s
}

func (s *Shell) Content(ctx context.Context) (node.ContentResult, error) {
	if len(s.command) == 0 {
		return node.ContentResult{}, derrors.ProcessError("shell node has no command").Build()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// #nosec G204 -- commands come from the build script author.
	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.Dir = s.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return node.ContentResult{}, derrors.ProcessError("command failed").
			WithCause(err).
			WithContext("command", strings.Join(s.command, " ")).
			WithContext("output", strings.TrimSpace(string(out))).
			Build()
	}

	text := strings.TrimRight(string(out), "\n")
	if s.showCommand {
		text = "$ " + strings.Join(s.command, " ") + "\n" + text
	}
	return node.NewContentResult(fence(text, s.lang, "", false), codeResources(s.OwnResources())), nil
}
