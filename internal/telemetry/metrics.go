package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/wolfeidau/packcfg"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal       metric.Int64Counter
	BuildErrorsTotal  metric.Int64Counter
	BuildDuration     metric.Float64Histogram
	BuildWarnings     metric.Int64Counter
	OutputBytesTotal  metric.Int64Counter
	OutputFilesTotal  metric.Int64Counter
	CleanedFilesTotal metric.Int64Counter

	// Dev server metrics
	DevServerRequestsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// Tracer returns the tracer used for build spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	// Build metrics
	m.BuildsTotal, _ = meter.Int64Counter(
		"packcfg.builds.total",
		metric.WithDescription("Total number of bundler builds, including watch rebuilds"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"packcfg.builds.errors.total",
		metric.WithDescription("Total number of builds that reported errors"),
		metric.WithUnit("{build}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"packcfg.builds.duration",
		metric.WithDescription("Duration of bundler builds"),
		metric.WithUnit("ms"),
	)

	m.BuildWarnings, _ = meter.Int64Counter(
		"packcfg.builds.warnings.total",
		metric.WithDescription("Total number of warnings reported by builds"),
		metric.WithUnit("{warning}"),
	)

	m.OutputBytesTotal, _ = meter.Int64Counter(
		"packcfg.output.bytes.total",
		metric.WithDescription("Total number of bytes written to the output directory"),
		metric.WithUnit("By"),
	)

	m.OutputFilesTotal, _ = meter.Int64Counter(
		"packcfg.output.files.total",
		metric.WithDescription("Total number of files written to the output directory"),
		metric.WithUnit("{file}"),
	)

	m.CleanedFilesTotal, _ = meter.Int64Counter(
		"packcfg.output.cleaned.total",
		metric.WithDescription("Total number of stale files removed from the output directory"),
		metric.WithUnit("{file}"),
	)

	// Dev server metrics
	m.DevServerRequestsTotal, _ = meter.Int64Counter(
		"packcfg.devserver.requests.total",
		metric.WithDescription("Total number of requests proxied by the dev server"),
		metric.WithUnit("{request}"),
	)

	return m
}
