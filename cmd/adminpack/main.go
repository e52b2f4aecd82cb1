package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/adminpack/cmd/adminpack/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Build   commands.BuildCmd  `cmd:"" help:"Build the admin panel"`
		Watch   commands.WatchCmd  `cmd:"" help:"Rebuild the admin panel on every change"`
		Config  commands.ConfigCmd `cmd:"" help:"Print the derived bundle configuration"`
		Debug   bool               `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("adminpack"),
		kong.Description("Bundles the admin panel front-end."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
