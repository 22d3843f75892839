package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/packcfg/cmd/packcfg/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool     `help:"Enable debug mode."`
		Env     string   `help:"Build environment to resolve." env:"PACKCFG_ENV" required:""`
		Overlay []string `help:"YAML overlay merged after the environment overlay, repeatable." env:"PACKCFG_OVERLAYS"`
		Root    string   `help:"Project root directory." default:"." env:"PACKCFG_ROOT"`
		Tracing bool     `help:"Export build traces and metrics over OTLP." env:"PACKCFG_TRACING"`
		Version kong.VersionFlag

		Build  commands.BuildCmd  `cmd:"" help:"Bundle the project"`
		Serve  commands.ServeCmd  `cmd:"" help:"Start the development server"`
		Print  commands.PrintCmd  `cmd:"" help:"Print the merged configuration"`
		Lintrc commands.LintrcCmd `cmd:"" help:"Write the lint rule set"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("packcfg"),
		kong.Description("Layered bundler configuration and build runner."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:    cli.Debug,
		Version:  version,
		Env:      cli.Env,
		Overlays: cli.Overlay,
		Root:     cli.Root,
		Tracing:  cli.Tracing,
	})
	cmd.FatalIfErrorf(err)
}
