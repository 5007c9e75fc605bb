package devserver

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/manuschillerdev/doklab-site/pkg/router"
)

// Overlay replaces page responses with the last reload error until a
// rebuild succeeds. Scripts, websocket upgrades and non-GET requests pass
// through so the overlay page itself can connect and refresh.
func (r *Reloader) Overlay(script string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			err := r.Err()
			if err == nil || req.Method != http.MethodGet || passThrough(req) {
				next.ServeHTTP(w, req)
				return
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_ = overlayTemplate.Execute(w, overlayData{
				Error:  err.Error(),
				Script: script,
				Nonce:  router.GetCSPNonce(req.Context()),
			})
		})
	}
}

func passThrough(req *http.Request) bool {
	if strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket") {
		return true
	}
	p := req.URL.Path
	return strings.HasPrefix(p, "/_live/") || p == "/healthz" || p == "/readyz"
}

type overlayData struct {
	Error  string
	Script string
	Nonce  string
}

var overlayTemplate = template.Must(template.New("overlay").Parse(`<!DOCTYPE html>
<html lang="en" class="dark">
<head>
<meta charset="utf-8">
<title>Content error</title>
<style>
body { font-family: ui-sans-serif, system-ui, sans-serif; background: #0a0a0f; color: #e5e7eb; padding: 2rem; margin: 0; }
.error-container { background: #12121a; border-left: 4px solid #e74c3c; padding: 1rem; border-radius: 4px; }
h1 { color: #e74c3c; margin-top: 0; }
pre { background: #0f0f17; padding: 1rem; overflow-x: auto; border-radius: 4px; white-space: pre-wrap; }
</style>
{{if .Script}}<script src="{{.Script}}" nonce="{{.Nonce}}" defer></script>{{end}}
</head>
<body data-live-view="watch" data-live-path="/_live/socket">
<div class="error-container">
<h1>Content reload failed</h1>
<pre>{{.Error}}</pre>
<p>Fix the file and save; this page refreshes on the next successful reload.</p>
</div>
</body>
</html>`))
