package devserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
	"github.com/wolfeidau/packcfg/internal/bundler"
)

var body = strings.Repeat("console.log('packcfg');\n", 200)

func upstream(t *testing.T) *url.URL {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case EventsPath:
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "event: change\ndata: {}\n\n"+body)
		default:
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = io.WriteString(w, body)
		}
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u
}

func get(t *testing.T, h http.Handler, path string, headers map[string]string) *http.Response {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Result()
}

func TestHandler_proxies(t *testing.T) {
	h := Handler(zerolog.Nop(), upstream(t), buildconfig.DevServer{})

	resp := get(t, h, "/app.js", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, body, string(data))
}

func TestHandler_compress(t *testing.T) {
	tests := []struct {
		name     string
		compress bool
		path     string
		encoding string
	}{
		{name: "enabled", compress: true, path: "/app.js", encoding: "gzip"},
		{name: "disabled", compress: false, path: "/app.js", encoding: ""},
		{name: "event stream", compress: true, path: EventsPath, encoding: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handler(zerolog.Nop(), upstream(t), buildconfig.DevServer{Compress: tt.compress})

			resp := get(t, h, tt.path, map[string]string{"Accept-Encoding": "gzip"})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, tt.encoding, resp.Header.Get("Content-Encoding"))
		})
	}
}

func TestHandler_cors(t *testing.T) {
	h := Handler(zerolog.Nop(), upstream(t), buildconfig.DevServer{AllowedOrigins: []string{"http://localhost:3000"}})

	resp := get(t, h, "/app.js", map[string]string{"Origin": "http://localhost:3000"})
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = get(t, h, "/app.js", map[string]string{"Origin": "http://evil.example"})
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandler_upstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	resp := get(t, Handler(zerolog.Nop(), u, buildconfig.DevServer{}), "/app.js", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
	}{
		{"darwin", "open"},
		{"windows", "rundll32"},
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := browserCommand(tt.goos, "http://localhost:9001")
			require.Equal(t, tt.name, name)
			require.Equal(t, "http://localhost:9001", args[len(args)-1])
		})
	}
}

func TestServer_start(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"src/index.tsx":     "document.title = 'packcfg';\n",
		"config/index.html": "<!DOCTYPE html><html><head></head><body></body></html>",
	}
	for name, contents := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))
	}

	eff, err := buildconfig.Resolve(buildconfig.EnvDevelopment)
	require.NoError(t, err)

	pipeline, err := bundler.New(zerolog.Nop(), eff, bundler.Config{Root: root, LiveReload: true})
	require.NoError(t, err)

	server := New(zerolog.Nop(), pipeline, *eff.Environment.DevServer)
	h, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	_, err = server.Start()
	require.Error(t, err)

	proxy := httptest.NewServer(h)
	t.Cleanup(proxy.Close)

	resp, err := http.Get(proxy.URL + "/app.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), "packcfg")
}
