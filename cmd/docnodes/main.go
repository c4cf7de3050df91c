package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docnodes/cmd/docnodes/commands"
	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docnodes"),
		kong.Description("Render documentation trees built from code into markdown."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(&commands.Global{Out: os.Stdout, Scripts: commands.BuiltinScripts()}, cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
