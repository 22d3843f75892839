package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
	"github.com/wolfeidau/packcfg/internal/telemetry"
)

type Globals struct {
	Debug    bool
	Version  string
	Env      string
	Overlays []string
	Root     string
	Tracing  bool
}

// project is the configuration resolved for one invocation.
type project struct {
	merged      buildconfig.Config
	effective   *buildconfig.Effective
	fingerprint string
}

// load merges the environment overlay and any overlay files onto the base
// configuration.
func (g *Globals) load() (*project, error) {
	extra := make([]buildconfig.Config, 0, len(g.Overlays))
	for _, path := range g.Overlays {
		overlay, err := buildconfig.LoadOverlay(path)
		if err != nil {
			return nil, err
		}
		extra = append(extra, overlay)
	}

	merged, err := buildconfig.Merged(g.Env, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}

	fingerprint, err := buildconfig.Fingerprint(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint configuration: %w", err)
	}

	eff, err := buildconfig.Decode(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration: %w", err)
	}

	return &project{merged: merged, effective: eff, fingerprint: fingerprint}, nil
}

// startTelemetry installs the OTLP exporters when tracing is enabled. The
// returned function flushes them.
func (g *Globals) startTelemetry(ctx context.Context, log zerolog.Logger) func() {
	if !g.Tracing {
		return func() {}
	}

	log.Info().Msg("Tracing is enabled")
	shutdown, err := telemetry.Init(ctx, log, telemetry.Config{
		ServiceName: "packcfg",
		Version:     g.Version,
		SampleRatio: 1,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		// zero keeps the rebuild event stream open
		WriteTimeout:   0,
		IdleTimeout:    5 * time.Minute,
		MaxHeaderBytes: 8 * 1024, // 8KiB
	}
}
