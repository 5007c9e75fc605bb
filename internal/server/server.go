// Package server assembles the site: the live landing page, the docs, the
// client script, health endpoints and, in development, content reloading.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/manuschillerdev/doklab-site/internal/config"
	"github.com/manuschillerdev/doklab-site/internal/content"
	"github.com/manuschillerdev/doklab-site/internal/devserver"
	"github.com/manuschillerdev/doklab-site/internal/docs"
	"github.com/manuschillerdev/doklab-site/internal/site"
	"github.com/manuschillerdev/doklab-site/pkg/health"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
	"github.com/manuschillerdev/doklab-site/pkg/metrics"
	"github.com/manuschillerdev/doklab-site/pkg/router"
	"github.com/manuschillerdev/doklab-site/pkg/shutdown"
	"github.com/manuschillerdev/doklab-site/pkg/transport"
)

// ErrNoDocs is reported by the readiness check before the docs are built.
var ErrNoDocs = errors.New("docs not built")

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by the readiness endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithContent replaces the content tree selected by the configuration.
func WithContent(fsys fs.FS) Option {
	return func(s *Server) { s.contentFS = fsys }
}

// WithClock sets the time source used for copyright years and sitemaps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server is the doklab site.
type Server struct {
	cfg     *config.Config
	meta    site.Meta
	logger  logging.Logger
	version string
	now     func() time.Time

	contentFS fs.FS
	store     *content.Store
	docs      atomic.Pointer[docs.Site]

	router   *router.Router
	health   *health.Checker
	reloader *devserver.Reloader
}

// New builds the server and loads all content. Invalid content fails here,
// not on the first request.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		meta:    cfg.Meta(),
		logger:  logging.NopLogger{},
		version: "dev",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.contentFS == nil {
		fsys, err := content.Open(cfg.Content.Dir)
		if err != nil {
			return nil, err
		}
		s.contentFS = fsys
	}

	store, err := content.NewStore(s.contentFS)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	s.store = store
	s.warnDangling(store.Current())
	if err := s.rebuildDocs(store.Current()); err != nil {
		return nil, err
	}

	s.router = router.New(
		router.WithLogger(s.logger),
		router.WithMaxSessions(cfg.Server.MaxSessions),
		router.WithMaxSessionsPerIP(cfg.Server.MaxSessionsPerIP),
		router.WithMetrics(metrics.New(metrics.DefaultNamespace)),
		router.WithWebSocketConfig(&transport.WebSocketConfig{
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			InsecureDevMode: cfg.Server.Dev,
		}),
	)

	if cfg.Content.Watch {
		s.reloader, err = devserver.New(cfg.Content.Dir, s.reload,
			devserver.WithDebounce(cfg.Content.Debounce),
			devserver.WithBroadcaster(s.router.SocketManager()),
			devserver.WithLogger(s.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("content watcher: %w", err)
		}
	}

	s.health = health.NewChecker(s.version)
	s.health.AddCritical("content", s.checkContent, time.Second)
	s.health.Add("live_sessions", health.CapacityCheck("live sessions", s.router.Sessions().Count, cfg.Server.MaxSessions), time.Second)

	s.routes()
	return s, nil
}

// Handler returns the HTTP handler of the site.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the live router.
func (s *Server) Router() *router.Router {
	return s.router
}

// Docs returns the current documentation build.
func (s *Server) Docs() *docs.Site {
	return s.docs.Load()
}

// Content returns the content store.
func (s *Server) Content() *content.Store {
	return s.store
}

func (s *Server) rebuildDocs(b *content.Bundle) error {
	d, err := docs.New(b.Docs, s.meta, docs.Options{
		Theme:         s.cfg.Presenter.Theme,
		CollapseLevel: 1,
		EditLinkText:  "Edit this page on GitHub",
	})
	if err != nil {
		return fmt.Errorf("building docs: %w", err)
	}
	s.docs.Store(d)
	return nil
}

// reload reads the content tree again. Either both the bundle and the docs
// are replaced or neither is.
func (s *Server) reload() error {
	prev := s.store.Current()
	b, err := s.store.Reload()
	if err != nil {
		return err
	}
	if err := s.rebuildDocs(b); err != nil {
		s.store.Restore(prev)
		return err
	}
	s.warnDangling(b)
	return nil
}

func (s *Server) warnDangling(b *content.Bundle) {
	if b.Dangling != nil {
		s.logger.Warn("dangling tab references", logging.Err(b.Dangling))
	}
}

func (s *Server) checkContent(ctx context.Context) error {
	if s.docs.Load() == nil {
		return ErrNoDocs
	}
	if s.reloader != nil {
		if err := s.reloader.Err(); err != nil {
			return &health.Error{Message: "content reload failed", Details: map[string]any{"error": err.Error()}}
		}
	}
	return nil
}

// Run serves until ctx is cancelled or a shutdown signal arrives, then
// stops the listener, closes live sessions and the watcher in that order.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}

	sd := shutdown.NewHandler(&shutdown.Config{
		Timeout: s.cfg.Server.ShutdownTimeout,
		Signals: shutdown.DefaultConfig().Signals,
		Logger:  s.logger,
	})
	sd.Register("http", shutdown.PriorityHTTP, srv.Shutdown)
	sd.Register("live", shutdown.PriorityLive, s.router.Shutdown)

	if s.reloader != nil {
		if err := s.reloader.Start(ctx); err != nil {
			return fmt.Errorf("content watcher: %w", err)
		}
		sd.Register("watcher", shutdown.PriorityWatcher, func(context.Context) error {
			return s.reloader.Close()
		})
	}

	go s.sweep(sd.Done())

	var serveErr error
	failed := make(chan struct{})
	go func() {
		s.logger.Info("listening",
			logging.String("address", ln.Addr().String()),
			logging.Bool("dev", s.cfg.Server.Dev),
			logging.String("version", s.version))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
			close(failed)
		}
	}()

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-failed:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	err := sd.Wait(waitCtx)
	s.logger.Info("stopped")

	select {
	case <-failed:
		return errors.Join(serveErr, err)
	default:
		return err
	}
}

// sweep closes idle live sessions until done is closed.
func (s *Server) sweep(done <-chan struct{}) {
	idle := s.cfg.Server.SessionIdle
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := s.router.Sweep(idle); n > 0 {
				s.logger.Debug("swept idle sessions", logging.Int("count", n))
			}
		}
	}
}
