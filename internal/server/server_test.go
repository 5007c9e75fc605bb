package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuschillerdev/doklab-site/internal/config"
	"github.com/manuschillerdev/doklab-site/internal/content"
	"github.com/manuschillerdev/doklab-site/internal/scrolly"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	s, err := New(cfg, WithClock(fixedNow), WithVersion("test"))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, string(body)
}

func TestServer_Pages(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		path   string
		status int
		want   []string
	}{
		{"/", 200, []string{`data-live-view="landing"`, `data-presenter="compose"`, `data-presenter="config"`, `<script src="/_live/doklab.js"`}},
		{"/docs", 200, []string{"<title>Documentation - doklab</title>", `class="docs-sidebar"`, "Edit this page on GitHub"}},
		{"/docs/labels/routing", 200, []string{`aria-current="page"`, "tree/main/landing/content/labels/routing.md"}},
		{"/docs/labels/", 200, []string{"<h1"}},
		{"/docs/nope", 404, []string{"Page not found"}},
		{"/nope", 404, []string{"Page not found", "/nope"}},
		{"/healthz", 200, []string{`"alive"`}},
		{"/readyz", 200, []string{`"healthy"`, `"test"`}},
		{"/metrics", 200, []string{"doklab_live_sessions 0", "doklab_events_total"}},
		{"/robots.txt", 200, []string{"Sitemap: https://doklab.dev/sitemap.xml"}},
		{"/sitemap.xml", 200, []string{"<loc>https://doklab.dev/</loc>", "<loc>https://doklab.dev/docs/getting-started</loc>", "<lastmod>2026-03-01</lastmod>"}},
		{"/icon.svg", 200, []string{"<svg"}},
		{"/_live/doklab.js", 200, []string{"phx_join"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, _, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, status)
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
		})
	}
}

func TestServer_SecurityHeaders(t *testing.T) {
	_, ts := newTestServer(t, nil)

	_, h, body := get(t, ts.URL+"/")
	csp := h.Get("Content-Security-Policy")
	require.NotEmpty(t, csp)
	assert.Contains(t, csp, "nonce-")

	// The script tag carries the nonce from the header.
	i := strings.Index(csp, "nonce-")
	nonce := csp[i+len("nonce-"):]
	nonce = nonce[:strings.IndexByte(nonce, '\'')]
	assert.Contains(t, body, `nonce="`+nonce+`"`)
}

type wireMsg struct {
	Ref     string         `json:"ref,omitempty"`
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

func TestServer_LiveSession(t *testing.T) {
	_, ts := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	send := func(m wireMsg) {
		data, err := json.Marshal(m)
		require.NoError(t, err)
		require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
	}
	read := func() wireMsg {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var m wireMsg
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	send(wireMsg{Ref: "1", Topic: "lv:landing", Event: "phx_join", Payload: map[string]any{"params": map[string]any{}}})
	for {
		m := read()
		if m.Event == "phx_reply" && m.Ref == "1" {
			assert.Equal(t, "ok", m.Payload["status"])
			break
		}
	}

	send(wireMsg{Ref: "2", Topic: "lv:landing", Event: "step:intersect", Payload: map[string]any{
		"presenter": "compose",
		"viewport":  1000.0,
		"entries": []any{
			map[string]any{"region": "compose-step-2", "top": 300.0, "height": 300.0},
		},
	}})

	var sawDiff, sawExec bool
	for !(sawDiff && sawExec) {
		m := read()
		switch m.Event {
		case "diff":
			sawDiff = true
		case "exec":
			if sawDiff {
				sawExec = true
				cmds, ok := m.Payload["commands"].([]any)
				require.True(t, ok)
				assert.NotEmpty(t, cmds)
			}
		case "phx_reply":
			if m.Ref == "2" {
				assert.Equal(t, "ok", m.Payload["status"])
			}
		}
	}

	send(wireMsg{Ref: "3", Topic: "lv:landing", Event: "tab:select", Payload: map[string]any{"presenter": "nope", "tab": "x"}})
	for {
		m := read()
		if m.Event == "phx_reply" && m.Ref == "3" {
			assert.Equal(t, "error", m.Payload["status"])
			break
		}
	}
}

func copyContent(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.CopyFS(dir, content.Embedded()))
	return dir
}

func TestServer_ContentReload(t *testing.T) {
	dir := copyContent(t)

	cfg := config.Default()
	cfg.Content.Dir = dir
	cfg.Content.Watch = true
	cfg.Content.Debounce = 10 * time.Millisecond

	s, ts := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.reloader.Start(ctx))
	defer s.reloader.Close()

	_, _, body := get(t, ts.URL+"/docs/getting-started")
	assert.Contains(t, body, `data-live-path="/_live/socket"`)

	page := filepath.Join(dir, "docs", "getting-started.md")
	require.NoError(t, os.WriteFile(page, []byte("---\ntitle: Start\n---\n# Start\n\nfresh words\n"), 0o644))
	require.Eventually(t, func() bool {
		_, _, body := get(t, ts.URL+"/docs/getting-started")
		return strings.Contains(body, "fresh words")
	}, 3*time.Second, 20*time.Millisecond)

	// A broken catalog keeps the last good content and shows the overlay.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalogs", "config.yaml"), []byte("steps: [\n"), 0o644))
	require.Eventually(t, func() bool { return s.reloader.Err() != nil }, 3*time.Second, 20*time.Millisecond)

	status, _, body := get(t, ts.URL+"/docs/getting-started")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "Content reload failed")
	assert.NotNil(t, s.Content().Current().Config)

	status, _, body = get(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "content reload failed")
}

func TestServer_Serve(t *testing.T) {
	cfg := config.Default()
	s, err := New(cfg, WithClock(fixedNow))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Presenter.Threshold = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNew_DanglingRefWarns(t *testing.T) {
	dir := copyContent(t)
	catalog := "name: config\nsteps:\n  - title: One\n    description: see [[gone.yaml]]\n    tabs:\n      - name: doklab.yaml\n        code: \"domain: x\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalogs", "config.yaml"), []byte(catalog), 0o644))

	cfg := config.Default()
	cfg.Content.Dir = dir
	s, ts := newTestServer(t, cfg)

	require.ErrorIs(t, s.Content().Current().Dangling, scrolly.ErrDanglingRef)

	status, _, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `data-tab="gone.yaml"`)

	status, _, _ = get(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusOK, status)
}
