package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/usemin/cmd/usemin/commands"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Parse(cli,
		kong.Name("usemin"),
		kong.Description("Rewrite build blocks in HTML documents into optimized assets."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	if err := parser.Run(global, cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
		os.Exit(adapter.Report(err))
	}
}
