// Package devserver serves development builds. esbuild's serve mode runs on
// loopback and is exposed on the configured address through a reverse
// proxy, which adds request logging, compression and CORS.
package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
	"github.com/wolfeidau/packcfg/internal/bundler"
	httpmiddleware "github.com/wolfeidau/packcfg/internal/http"
	"github.com/wolfeidau/packcfg/internal/logger"
	"github.com/wolfeidau/packcfg/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventsPath is esbuild's rebuild event stream.
const EventsPath = "/esbuild"

// Server owns the esbuild serve context for a pipeline.
type Server struct {
	pipeline *bundler.Pipeline
	config   buildconfig.DevServer
	logger   zerolog.Logger

	mu   sync.Mutex
	bctx api.BuildContext
}

// New creates a dev server for pipeline.
func New(logger zerolog.Logger, pipeline *bundler.Pipeline, config buildconfig.DevServer) *Server {
	return &Server{
		pipeline: pipeline,
		config:   config,
		logger:   logger,
	}
}

// Start watches the sources, starts esbuild's server and returns the proxy
// handler for it. Close releases esbuild.
func (s *Server) Start() (http.Handler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bctx != nil {
		return nil, errors.New("dev server already started")
	}

	bctx, err := s.pipeline.Context()
	if err != nil {
		return nil, err
	}

	if s.config.Hot {
		if err := bctx.Watch(api.WatchOptions{}); err != nil {
			bctx.Dispose()
			return nil, fmt.Errorf("failed to start watch: %w", err)
		}
	}

	result, err := bctx.Serve(api.ServeOptions{
		Servedir: s.contentBase(),
		Host:     "127.0.0.1",
	})
	if err != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("failed to start esbuild server: %w", err)
	}
	s.bctx = bctx

	upstream := &url.URL{Scheme: "http", Host: fmt.Sprintf("127.0.0.1:%d", result.Port)}

	s.logger.Info().
		Str("upstream", upstream.String()).
		Str("servedir", s.contentBase()).
		Bool("hot", s.config.Hot).
		Msg("esbuild server started")

	return Handler(s.logger, upstream, s.config), nil
}

// Close stops esbuild's server and watcher.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bctx != nil {
		s.bctx.Dispose()
		s.bctx = nil
	}
}

func (s *Server) contentBase() string {
	dir := s.config.ContentBase
	if dir == "" {
		return s.pipeline.OutputDir()
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.pipeline.Root(), dir)
}

// Handler proxies requests to upstream with the middleware config asks
// for. The event stream is never compressed.
func Handler(log zerolog.Logger, upstream *url.URL, config buildconfig.DevServer) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(upstream)
			r.SetXForwarded()
		},
		// stream server sent events as they arrive
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to reach esbuild server")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}

	mws := []httpmiddleware.Middleware{
		logger.Requests(log),
		countRequests(),
		httpmiddleware.NoStore(),
	}

	if len(config.AllowedOrigins) > 0 {
		mws = append(mws, cors.New(cors.Options{
			AllowedOrigins: config.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		}).Handler)
	}

	if config.Compress {
		mws = append(mws, httpmiddleware.Except(gzip(log), EventsPath))
	}

	return httpmiddleware.Chain(proxy, mws...)
}

func gzip(log zerolog.Logger) httpmiddleware.Middleware {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to configure compression, serving uncompressed")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return wrapper(next)
	}
}

func countRequests() httpmiddleware.Middleware {
	m := telemetry.GetMetrics()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.DevServerRequestsTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("method", r.Method)))
			next.ServeHTTP(w, r)
		})
	}
}
