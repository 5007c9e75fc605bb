package server

import (
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/manuschillerdev/doklab-site/client"
	"github.com/manuschillerdev/doklab-site/internal/devserver"
	"github.com/manuschillerdev/doklab-site/internal/docs"
	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/internal/site"
	"github.com/manuschillerdev/doklab-site/internal/site/components"
	"github.com/manuschillerdev/doklab-site/internal/site/landing"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
	"github.com/manuschillerdev/doklab-site/pkg/router"
)

func (s *Server) routes() {
	s.middleware()

	r := s.router

	// The watch socket must be registered before the /_live/* asset prefix.
	if s.reloader != nil {
		r.Live(devserver.SocketPath, devserver.NewWatch)
	}
	r.Handle("/_live/*", http.StripPrefix("/_live/", client.Handler()))

	r.Live("/", landing.New(landing.Options{
		Meta:        s.meta,
		Content:     s.store.Current,
		Highlighter: highlight.NewChroma(),
		Presenter:   s.cfg.Scrolly(),
		Layout:      s.cfg.Presenter.Layout,
		Metrics:     s.router.Metrics(),
		Now:         s.now,
	}))

	r.Get("/docs", s.handleDocs)
	r.Get("/docs/*", s.handleDocs)

	r.Handle("/healthz", s.health.LivenessHandler())
	r.Handle("/readyz", s.health.ReadinessHandler())
	r.Handle("/metrics", s.router.Metrics().Handler())
	r.Get("/robots.txt", s.handleRobots)
	r.Get("/sitemap.xml", s.handleSitemap)

	entries, err := fs.ReadDir(s.store.Current().Static, ".")
	if err != nil {
		s.logger.Warn("no static assets", logging.Err(err))
	}
	for _, e := range entries {
		if !e.IsDir() {
			r.Get("/"+e.Name(), s.handleStatic(e.Name()))
		}
	}

	r.SetNotFoundHandler(http.HandlerFunc(s.handleNotFound))
}

func (s *Server) middleware() {
	s.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(s.logger),
		middleware.Recoverer,
		router.SecureHeaders(),
	)
	if len(s.cfg.Server.AllowedOrigins) > 0 {
		s.router.Use(router.CORS(router.DefaultCORSOptions(s.cfg.Server.AllowedOrigins...)))
	}
	if s.reloader != nil {
		s.router.Use(s.reloader.Overlay(s.meta.Href(site.ClientScript)))
	}
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(chi.URLParam(r, "*"), "/")

	opts := docs.RenderOptions{
		Year:  s.now().Year(),
		Nonce: router.GetCSPNonce(r.Context()),
	}
	if s.reloader != nil {
		opts.LivePath = devserver.SocketPath
	}

	out, err := s.Docs().Render(slug, opts)
	if errors.Is(err, docs.ErrNotFound) {
		s.handleNotFound(w, r)
		return
	}
	if err != nil {
		logging.L(r.Context()).Error("render docs", logging.String("slug", slug), logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

func (s *Server) handleStatic(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeFileFS(w, r, s.store.Current().Static, name)
	}
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "User-agent: *\nAllow: /\n\nSitemap: %s\n", s.meta.URL("/sitemap.xml"))
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	lastmod := s.now().UTC().Format("2006-01-02")
	set := urlset{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: s.meta.URL("/"), LastMod: lastmod, ChangeFreq: "weekly", Priority: 1.0},
		},
	}
	d := s.Docs()
	for _, p := range d.Pages() {
		priority := 0.7
		if p.Slug == "" {
			priority = 0.9
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.meta.URL(d.URL(p.Slug)),
			LastMod:    lastmod,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = io.WriteString(w, xml.Header)
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		logging.L(r.Context()).Warn("write sitemap", logging.Err(err))
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	cfg := s.meta.Page("Page not found", r.URL.Path)
	cfg.Script = ""
	cfg.Nonce = router.GetCSPNonce(r.Context())

	var body strings.Builder
	body.WriteString(components.RenderHeader(components.DoklabHeader(s.meta)))
	body.WriteString(`<main id="main-content" class="container not-found">` + "\n")
	body.WriteString("<h1>Page not found</h1>\n")
	fmt.Fprintf(&body, "<p>Nothing lives at <code>%s</code>.</p>\n", html.EscapeString(r.URL.Path))
	fmt.Fprintf(&body, `<p><a href="%s" class="btn btn-primary">Back home</a> <a href="%s" class="btn btn-outline">Documentation</a></p>`+"\n",
		html.EscapeString(s.meta.Href("/")), html.EscapeString(s.meta.Href("/docs")))
	body.WriteString("</main>\n")
	body.WriteString(components.RenderFooter(components.DocsFooter(s.meta, s.now().Year())))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, site.RenderDocument(cfg, "", body.String()))
}
