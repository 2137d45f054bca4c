package main

import (
	"log/slog"

	"assetforge/cmd/assetforge/commands"
	"assetforge/internal/version"

	"github.com/alecthomas/kong"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("assetforge"),
		kong.Description("Declarative asset build orchestrator with watch mode"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, cli)
	ctx.FatalIfErrorf(err)
}
