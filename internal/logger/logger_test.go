package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequests(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{name: "ok", status: http.StatusOK, level: "debug"},
		{name: "not found", status: http.StatusNotFound, level: "debug"},
		{name: "server error", status: http.StatusBadGateway, level: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := zerolog.New(&buf).Level(zerolog.DebugLevel)

			handler := Requests(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NotEqual(t, zerolog.Disabled, zerolog.Ctx(r.Context()).GetLevel())
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			}))

			r := httptest.NewRequest(http.MethodGet, "/app.js", nil)
			r.Header.Set("X-Real-IP", "192.168.1.100")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			require.Equal(t, tt.status, w.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			require.Equal(t, tt.level, entry["level"])
			require.Equal(t, "/app.js", entry["path"])
			require.Equal(t, "192.168.1.100", entry["addr"])
			require.Equal(t, float64(tt.status), entry["status"])
			require.Equal(t, float64(5), entry["bytes"])
		})
	}
}

func TestRequests_flushes(t *testing.T) {
	handler := Requests(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data: change\n\n"))
		f.Flush()
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/esbuild", nil))
	require.True(t, w.Flushed)
}
