package bundler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
	"github.com/wolfeidau/packcfg/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrBuildFailed is returned when esbuild or an output plugin reports errors.
var ErrBuildFailed = errors.New("build failed")

// BuildError carries the messages of a failed build.
type BuildError struct {
	Messages []api.Message
}

func newBuildError(msgs []api.Message) *BuildError {
	return &BuildError{Messages: msgs}
}

func (e *BuildError) Error() string {
	if len(e.Messages) == 0 {
		return ErrBuildFailed.Error()
	}

	first := formatMessage(e.Messages[0])
	if len(e.Messages) == 1 {
		return fmt.Sprintf("%s: %s", ErrBuildFailed, first)
	}
	return fmt.Sprintf("%s: %s (and %d more)", ErrBuildFailed, first, len(e.Messages)-1)
}

func (e *BuildError) Is(target error) bool {
	return target == ErrBuildFailed
}

func formatMessage(msg api.Message) string {
	var b strings.Builder
	if msg.PluginName != "" {
		fmt.Fprintf(&b, "[%s] ", msg.PluginName)
	}
	if msg.Location != nil {
		fmt.Fprintf(&b, "%s:%d:%d: ", msg.Location.File, msg.Location.Line, msg.Location.Column)
	}
	b.WriteString(msg.Text)
	return b.String()
}

// Config configures a Pipeline.
type Config struct {
	// Root is the project directory, relative paths in the effective
	// configuration resolve against it. Empty means the working directory.
	Root string
	// Fingerprint of the configuration tree, recorded in the manifest.
	Fingerprint string
	// LiveReload injects the dev server reload snippet into HTML pages.
	LiveReload bool
}

// Pipeline runs builds for one effective configuration.
type Pipeline struct {
	eff      *buildconfig.Effective
	root     string
	options  api.BuildOptions
	warnings []string
	emitter  *emitter
	logger   zerolog.Logger

	mu       sync.RWMutex
	started  time.Time
	manifest *Manifest
	emitErr  error
}

// New creates a pipeline for eff.
func New(logger zerolog.Logger, eff *buildconfig.Effective, config Config) (*Pipeline, error) {
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	opts, warnings := Options(eff, root)

	p := &Pipeline{
		eff:      eff,
		root:     root,
		warnings: warnings,
		logger:   logger,
	}
	p.emitter = &emitter{
		eff:         eff,
		root:        root,
		outdir:      opts.Outdir,
		fingerprint: config.Fingerprint,
		liveReload:  config.LiveReload,
		warnings:    warnings,
		logger:      logger,
	}

	opts.Plugins = []api.Plugin{
		aliasPlugin(eff.Resolve.Alias, root),
		urlPlugin(urlThresholds(eff.ModuleRules)),
		p.emitPlugin(),
	}
	p.options = opts

	for _, w := range warnings {
		logger.Warn().Msg(w)
	}

	return p, nil
}

// Warnings lists configuration the bundler could not apply.
func (p *Pipeline) Warnings() []string {
	return p.warnings
}

// Root is the absolute project directory.
func (p *Pipeline) Root() string {
	return p.root
}

// OutputDir is the absolute output directory.
func (p *Pipeline) OutputDir() string {
	return p.options.Outdir
}

// Manifest returns the manifest of the last successful build, or nil.
func (p *Pipeline) Manifest() *Manifest {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.manifest
}

// Context creates an incremental esbuild context. Every rebuild runs the
// output plugins. Callers dispose it.
func (p *Pipeline) Context() (api.BuildContext, error) {
	bctx, cerr := api.Context(p.options)
	if cerr != nil {
		return nil, newBuildError(cerr.Errors)
	}
	return bctx, nil
}

// Build runs a single build and returns its manifest. Cancelling ctx
// cancels the build.
func (p *Pipeline) Build(ctx context.Context) (*Manifest, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "bundler.Build", trace.WithAttributes(
		attribute.String("packcfg.mode", p.eff.Mode),
		attribute.String("packcfg.outdir", p.options.Outdir),
	))
	defer span.End()

	manifest, err := p.build(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("packcfg.build_id", manifest.BuildID),
		attribute.Int64("packcfg.bytes", manifest.Bytes),
	)

	return manifest, nil
}

func (p *Pipeline) build(ctx context.Context) (*Manifest, error) {
	bctx, err := p.Context()
	if err != nil {
		return nil, err
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	result := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(result.Errors) > 0 {
		return nil, newBuildError(result.Errors)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.emitErr != nil {
		if errors.Is(p.emitErr, ErrBuildFailed) {
			return nil, p.emitErr
		}
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, p.emitErr)
	}

	return p.manifest, nil
}

// Watch rebuilds whenever a source file changes until ctx is cancelled.
func (p *Pipeline) Watch(ctx context.Context) error {
	bctx, err := p.Context()
	if err != nil {
		return err
	}
	defer bctx.Dispose()

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}

	p.logger.Info().Str("outdir", p.options.Outdir).Msg("Watching for changes")

	<-ctx.Done()

	return nil
}

func (p *Pipeline) emitPlugin() api.Plugin {
	return api.Plugin{
		Name: "emit",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				p.mu.Lock()
				p.started = time.Now()
				p.mu.Unlock()
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				var (
					manifest *Manifest
					err      error
				)
				if len(result.Errors) > 0 {
					err = newBuildError(result.Errors)
				} else {
					manifest, err = p.emitter.emit(result)
				}

				p.finish(result, manifest, err)

				if err != nil && len(result.Errors) == 0 {
					return api.OnEndResult{Errors: []api.Message{{Text: err.Error()}}}, nil
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

// finish records the outcome of a build, including watch rebuilds.
func (p *Pipeline) finish(result *api.BuildResult, manifest *Manifest, err error) {
	p.mu.Lock()
	elapsed := time.Since(p.started)
	p.emitErr = err
	if manifest != nil {
		p.manifest = manifest
	}
	p.mu.Unlock()

	ctx := context.Background()
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("mode", p.eff.Mode))

	m.BuildsTotal.Add(ctx, 1, attrs)
	m.BuildDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	m.BuildWarnings.Add(ctx, int64(len(result.Warnings)), attrs)

	for _, w := range result.Warnings {
		p.logger.Warn().Str("warning", formatMessage(w)).Msg("Build warning")
	}

	if err != nil {
		m.BuildErrorsTotal.Add(ctx, 1, attrs)
		p.logger.Error().Err(err).Dur("duration", elapsed).Msg("Build failed")
		return
	}

	m.OutputBytesTotal.Add(ctx, manifest.Bytes, attrs)
	m.OutputFilesTotal.Add(ctx, int64(manifest.Files()), attrs)
	m.CleanedFilesTotal.Add(ctx, int64(manifest.Cleaned), attrs)

	p.logger.Info().
		Str("build_id", manifest.BuildID).
		Str("fingerprint", manifest.Fingerprint).
		Int("files", manifest.Files()).
		Int64("bytes", manifest.Bytes).
		Dur("duration", elapsed).
		Msg("Build complete")
}
