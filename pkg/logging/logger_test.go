package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestSlogLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(WithOutput(&buf), WithJSON(true), WithLevel(slog.LevelDebug))

	l.With(String("presenter", "compose")).Info("step changed", Int("step", 3), Err(nil))
	l.Error("highlight failed", Err(errors.New("no lexer")))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "step changed", lines[0]["msg"])
	assert.Equal(t, "compose", lines[0]["presenter"])
	assert.EqualValues(t, 3, lines[0]["step"])
	assert.NotContains(t, lines[0], "error")
	assert.Equal(t, "no lexer", lines[1]["error"])
}

func TestSlogLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(WithOutput(&buf), WithLevel(ParseLevel("warn")))

	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		" DEBUG ":  slog.LevelDebug,
		"info":     slog.LevelInfo,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"verbose!": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestL(t *testing.T) {
	assert.Equal(t, DefaultLogger, L(context.Background()))

	var nop Logger = NopLogger{}
	ctx := ContextWithLogger(context.Background(), nop)
	assert.Equal(t, nop, L(ctx))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := NewSlogLogger(WithOutput(&buf), WithJSON(true), WithLevel(slog.LevelDebug))

	var inner Logger
	h := middleware.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = L(r.Context())
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/docs", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.NotEqual(t, DefaultLogger, inner)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "request completed", lines[0]["msg"])
	assert.Equal(t, "/docs", lines[0]["path"])
	assert.EqualValues(t, 2, lines[0]["bytes"])
	assert.NotEmpty(t, lines[0]["request_id"])

	assert.Equal(t, "request failed", lines[1]["msg"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.EqualValues(t, 500, lines[1]["status"])
}
