package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wolfeidau/packcfg/internal/bundler"
	"github.com/wolfeidau/packcfg/internal/devserver"
	"github.com/wolfeidau/packcfg/internal/logger"
)

type ServeCmd struct {
	Listen string `help:"listen address, overrides the configured host and port" env:"PACKCFG_LISTEN"`
	NoOpen bool   `help:"do not open a browser" default:"false"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	stopTelemetry := globals.startTelemetry(ctx, log)
	defer stopTelemetry()

	proj, err := globals.load()
	if err != nil {
		return err
	}

	ds := proj.effective.Environment.DevServer
	if ds == nil {
		return fmt.Errorf("environment %q has no dev server options", globals.Env)
	}

	pipeline, err := bundler.New(log, proj.effective, bundler.Config{
		Root:        globals.Root,
		Fingerprint: proj.fingerprint,
		LiveReload:  ds.Hot,
	})
	if err != nil {
		return fmt.Errorf("failed to create bundler: %w", err)
	}

	server := devserver.New(log, pipeline, *ds)
	handler, err := server.Start()
	if err != nil {
		return err
	}
	defer server.Close()

	addr := ds.Address()
	if c.Listen != "" {
		addr = c.Listen
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := configureHTTPServer(addr, handler)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	url := "http://" + addr
	log.Info().Str("url", url).Str("fingerprint", proj.fingerprint).Msg("Dev server listening")

	if ds.Open && !c.NoOpen {
		if err := devserver.OpenBrowser(ctx, url); err != nil {
			log.Warn().Err(err).Msg("Failed to open browser")
		}
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dev server failed: %w", err)
		}
	}

	log.Info().Msg("Shutting down dev server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
