package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/packcfg/internal/bundler"
	"github.com/wolfeidau/packcfg/internal/logger"
)

type BuildCmd struct {
	Watch bool `help:"rebuild when sources change" default:"false"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	stopTelemetry := globals.startTelemetry(ctx, log)
	defer stopTelemetry()

	proj, err := globals.load()
	if err != nil {
		return err
	}

	log.Info().
		Str("version", globals.Version).
		Str("env", globals.Env).
		Str("mode", proj.effective.Mode).
		Str("fingerprint", proj.fingerprint).
		Msg("Resolved configuration")

	pipeline, err := bundler.New(log, proj.effective, bundler.Config{
		Root:        globals.Root,
		Fingerprint: proj.fingerprint,
	})
	if err != nil {
		return fmt.Errorf("failed to create bundler: %w", err)
	}

	if c.Watch {
		return pipeline.Watch(ctx)
	}

	manifest, err := pipeline.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build: %w", err)
	}

	log.Info().
		Str("outdir", pipeline.OutputDir()).
		Str("build_id", manifest.BuildID).
		Strs("pages", manifest.Pages).
		Msg("Build written")

	return nil
}
