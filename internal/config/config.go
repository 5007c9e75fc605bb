// Package config loads the server configuration: built-in defaults, then an
// optional YAML file, then DOKLAB_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/internal/scrolly"
	"github.com/manuschillerdev/doklab-site/internal/site"
	"github.com/manuschillerdev/doklab-site/pkg/limits"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "doklab-site.yaml"

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: DOKLAB_SERVER__MAX_SESSIONS sets server.max_sessions.
const EnvPrefix = "DOKLAB_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Presenter PresenterConfig `koanf:"presenter"`
	Content   ContentConfig   `koanf:"content"`
	Log       LogConfig       `koanf:"log"`
	Site      SiteConfig      `koanf:"site"`
}

// ServerConfig configures the HTTP listener and live sessions.
type ServerConfig struct {
	Address        string   `koanf:"address"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	// Dev disables websocket origin checks and enables content reloads.
	Dev               bool          `koanf:"dev"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	MaxSessions       int           `koanf:"max_sessions"`
	// MaxSessionsPerIP keeps one client address from taking every live
	// session.
	MaxSessionsPerIP int `koanf:"max_sessions_per_ip"`
	// SessionIdle closes live sessions that sent nothing, not even a
	// heartbeat, for this long.
	SessionIdle time.Duration `koanf:"session_idle"`
}

// PresenterConfig tunes the scroll presenters.
type PresenterConfig struct {
	Threshold     float64        `koanf:"threshold"`
	Margin        scrolly.Margin `koanf:"margin"`
	Theme         string         `koanf:"theme"`
	MaxTransition time.Duration  `koanf:"max_transition"`
	Layout        scrolly.Layout `koanf:"layout"`
}

// ContentConfig selects where catalogs, snippets and docs come from.
type ContentConfig struct {
	// Dir replaces the embedded content when set.
	Dir      string        `koanf:"dir"`
	Watch    bool          `koanf:"watch"`
	Debounce time.Duration `koanf:"debounce"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// SiteConfig overrides the site metadata.
type SiteConfig struct {
	BaseURL            string `koanf:"base_url"`
	BasePath           string `koanf:"base_path"`
	RepositoryURL      string `koanf:"repository_url"`
	DocsRepositoryBase string `koanf:"docs_repository_base"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	presenter := scrolly.DefaultConfig()
	meta := site.DefaultMeta()

	return &Config{
		Server: ServerConfig{
			Address:           ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxSessions:       1000,
			MaxSessionsPerIP:  limits.DefaultMaxPerIP,
			SessionIdle:       5 * time.Minute,
		},
		Presenter: PresenterConfig{
			Threshold:     presenter.Observer.Threshold,
			Margin:        presenter.Observer.Margin,
			Theme:         presenter.Theme,
			MaxTransition: presenter.MaxTransition,
			Layout:        scrolly.DefaultLayout(),
		},
		Content: ContentConfig{
			Debounce: 200 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
		Site: SiteConfig{
			BaseURL:            meta.BaseURL,
			BasePath:           meta.BasePath,
			RepositoryURL:      meta.RepositoryURL,
			DocsRepositoryBase: meta.DocsRepositoryBase,
		},
	}
}

// Load layers the file at path and the environment over the defaults. An
// empty path reads DefaultFile if it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// envKey maps DOKLAB_PRESENTER__LAYOUT__LINE_HEIGHT to
// presenter.layout.line_height.
func envKey(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(name, "__", ".")
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Server.Address == "" {
		fail("server.address is required")
	}
	if c.Server.MaxSessions < 0 {
		fail("server.max_sessions must be non-negative")
	}
	if c.Server.MaxSessionsPerIP < 0 {
		fail("server.max_sessions_per_ip must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		fail("server.shutdown_timeout must be positive")
	}

	p := c.Presenter
	if p.Threshold <= 0 || p.Threshold > 1 {
		fail("presenter.threshold %v must be in (0, 1]", p.Threshold)
	}
	if p.Margin.Top < 0 || p.Margin.Bottom < 0 || p.Margin.Top+p.Margin.Bottom >= 1 {
		fail("presenter.margin must be non-negative and leave part of the viewport")
	}
	if !highlight.HasTheme(p.Theme) {
		fail("presenter.theme %q is not a chroma style", p.Theme)
	}
	if p.MaxTransition < 0 {
		fail("presenter.max_transition must be non-negative")
	}
	if p.Layout.LineHeight <= 0 || p.Layout.CharWidth <= 0 || p.Layout.PanelHeight <= 0 {
		fail("presenter.layout sizes must be positive")
	}

	if c.Content.Watch && c.Content.Dir == "" {
		fail("content.watch requires content.dir")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	if u, err := url.Parse(c.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		fail("site.base_url %q must be an absolute URL", c.Site.BaseURL)
	}
	if bp := c.Site.BasePath; bp != "" && (!strings.HasPrefix(bp, "/") || strings.HasSuffix(bp, "/")) {
		fail("site.base_path %q must start and not end with a slash", bp)
	}

	return errors.Join(errs...)
}

// Scrolly returns the presenter configuration.
func (c *Config) Scrolly() scrolly.Config {
	return scrolly.Config{
		Observer: scrolly.ObserverConfig{
			Threshold: c.Presenter.Threshold,
			Margin:    c.Presenter.Margin,
		},
		Theme:         c.Presenter.Theme,
		MaxTransition: c.Presenter.MaxTransition,
	}
}

// Meta returns the site metadata with the configured overrides applied.
func (c *Config) Meta() site.Meta {
	meta := site.DefaultMeta()
	meta.BaseURL = strings.TrimRight(c.Site.BaseURL, "/")
	meta.BasePath = c.Site.BasePath
	meta.RepositoryURL = c.Site.RepositoryURL
	meta.DocsRepositoryBase = c.Site.DocsRepositoryBase
	return meta
}

// Logger builds the process logger.
func (c *Config) Logger() *logging.SlogLogger {
	return logging.NewSlogLogger(
		logging.WithLevel(logging.ParseLevel(c.Log.Level)),
		logging.WithJSON(c.Log.JSON),
	)
}
