// Command sitegen builds and previews the site.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitegen"),
		kong.Description("Static site generator for a personal website and blog."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	if err := ctx.Run(&Global{Logger: slog.Default()}, &cli); err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
