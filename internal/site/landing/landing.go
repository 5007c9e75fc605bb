// Package landing provides the live landing page: the static marketing
// sections around two scrollycoding walkthroughs whose presenters run on the
// page's live socket.
package landing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manuschillerdev/doklab-site/internal/content"
	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/internal/scrolly"
	"github.com/manuschillerdev/doklab-site/internal/site"
	"github.com/manuschillerdev/doklab-site/internal/site/components"
	"github.com/manuschillerdev/doklab-site/pkg/core"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
	"github.com/manuschillerdev/doklab-site/pkg/metrics"
	"github.com/manuschillerdev/doklab-site/pkg/protocol"
	"github.com/manuschillerdev/doklab-site/pkg/router"
)

// Presenter ids of the two walkthroughs.
const (
	ComposeID = "compose"
	ConfigID  = "config"
)

// ErrUnknownPresenter is returned for events addressed to a presenter the
// page does not have.
var ErrUnknownPresenter = fmt.Errorf("%w: unknown presenter", protocol.ErrBadPayload)

// Options configures the landing page.
type Options struct {
	Meta site.Meta
	// Content returns the content snapshot a new page is built from.
	Content     func() *content.Bundle
	Highlighter highlight.Highlighter
	Presenter   scrolly.Config
	Layout      scrolly.Layout
	// Metrics, when set, receives the presenters' highlight timings.
	Metrics *metrics.Metrics
	// Now is used for the copyright year.
	Now func() time.Time
}

// Page is the landing page component. One instance serves one HTTP render
// or one live connection.
type Page struct {
	core.BaseComponent

	opts     Options
	sections []*scrolly.Section
	examples []components.CodeWindowOptions
	nonce    string
}

// New returns a component factory for the router.
func New(opts Options) func() core.Component {
	if opts.Highlighter == nil {
		opts.Highlighter = highlight.NewChroma()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Presenter.Theme == "" {
		opts.Presenter = scrolly.DefaultConfig()
	}
	if opts.Layout.LineHeight == 0 {
		opts.Layout = scrolly.DefaultLayout()
	}
	return func() core.Component {
		return &Page{opts: opts}
	}
}

// Name returns the component name.
func (p *Page) Name() string {
	return "landing"
}

// Sections returns the walkthroughs in page order.
func (p *Page) Sections() []*scrolly.Section {
	return p.sections
}

// Mount builds the walkthroughs from the current content and highlights the
// static examples. Without a socket the presenters only pre-render.
func (p *Page) Mount(ctx context.Context, params core.Params, session core.Session) error {
	bundle := p.opts.Content()
	if bundle == nil {
		return errors.New("landing: no content loaded")
	}
	log := logging.L(ctx)
	p.nonce = router.GetCSPNonce(ctx)

	var (
		post scrolly.Poster
		sink scrolly.CommandSink
	)
	if socket := p.Socket(); socket != nil {
		post = socket.SendInfo
		sink = socket.Exec
	}

	p.sections = []*scrolly.Section{
		scrolly.NewSection(scrolly.SectionConfig{
			ID:          ComposeID,
			Catalog:     bundle.Compose,
			Highlighter: p.opts.Highlighter,
			Presenter:   p.opts.Presenter,
			Layout:      p.opts.Layout,
			Options:     scrolly.SectionOptions{Variant: scrolly.VariantTabbed, Class: "lg-only"},
			Logger:      log,
			Metrics:     p.opts.Metrics,
		}, sink),
		scrolly.NewSection(scrolly.SectionConfig{
			ID:          ConfigID,
			Catalog:     bundle.Config,
			Highlighter: p.opts.Highlighter,
			Presenter:   p.opts.Presenter,
			Layout:      p.opts.Layout,
			Options:     scrolly.SectionOptions{Variant: scrolly.VariantSingle},
			Logger:      log,
			Metrics:     p.opts.Metrics,
		}, sink),
	}
	for _, s := range p.sections {
		if err := s.Mount(ctx, post); err != nil {
			return err
		}
	}

	p.examples = []components.CodeWindowOptions{
		p.example(ctx, log, "compose.yaml", "example-compose", bundle.ExampleCompose),
		p.example(ctx, log, "terminal", "example-terminal", bundle.ExampleTerminal),
	}
	log.Debug("landing mounted", logging.Bool("live", core.Live(ctx)))
	return nil
}

// example highlights a static snippet. A failure leaves the window empty.
func (p *Page) example(ctx context.Context, log logging.Logger, name, prefix, src string) components.CodeWindowOptions {
	lang := highlight.LanguageFor(name)
	if name == "terminal" {
		lang = "bash"
	}
	code, err := p.opts.Highlighter.Highlight(ctx, highlight.Snippet{Value: src, Lang: lang}, p.opts.Presenter.Theme)
	if err != nil {
		log.Error("example highlight failed", logging.String("example", name), logging.Err(err))
		code = nil
	}
	return components.CodeWindowOptions{Filename: name, Code: code, Prefix: prefix}
}

func (p *Page) section(id string) (*scrolly.Section, bool) {
	for _, s := range p.sections {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// HandleEvent routes a client event to the walkthrough named by its
// "presenter" field.
func (p *Page) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	id, _ := payload["presenter"].(string)
	s, ok := p.section(id)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownPresenter, id)
	}
	_, err := s.HandleEvent(event, payload)
	return err
}

// HandleInfo applies highlight completions posted by the presenters.
func (p *Page) HandleInfo(ctx context.Context, msg any) error {
	res, ok := msg.(scrolly.HighlightResult)
	if !ok {
		logging.L(ctx).Debug("ignored info message", logging.String("type", fmt.Sprintf("%T", msg)))
		return nil
	}
	for _, s := range p.sections {
		if s.HandleResult(res) {
			break
		}
	}
	return nil
}

// AfterRender sends the queued scroll, animation and step commands of each
// walkthrough.
func (p *Page) AfterRender(ctx context.Context) error {
	var errs []error
	for _, s := range p.sections {
		if err := s.AfterRender(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Terminate stops the presenters and their in-flight highlights.
func (p *Page) Terminate(ctx context.Context, reason core.TerminateReason) error {
	for _, s := range p.sections {
		s.Terminate()
	}
	return nil
}

// Render returns the full document.
func (p *Page) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		meta := p.opts.Meta
		cfg := meta.Page("", "/")
		cfg.Nonce = p.nonce
		_, err := io.WriteString(w, site.RenderDocument(cfg, "", p.body()))
		return err
	})
}

func (p *Page) body() string {
	meta := p.opts.Meta
	var sb strings.Builder

	sb.WriteString(components.RenderHeader(components.DoklabHeader(meta)))
	sb.WriteString(`<main id="main-content" data-live-view="landing">` + "\n")
	sb.WriteString(components.RenderHero(components.DoklabHero(meta)))

	if s, ok := p.section(ComposeID); ok {
		s.Render(&sb)
		sb.WriteString("\n")
	}
	sb.WriteString(components.RenderFeatures(components.FeaturesOptions{
		Title:    "Platform features, compose simplicity",
		Features: components.DoklabFeatures(),
		Class:    "mobile-only",
	}))
	sb.WriteString(components.RenderExample(components.ExampleOptions{
		Title:    "Compose native, fully opt-in, no crappy browser UIs",
		Subtitle: "Fully versionable and compose compatible",
		Windows:  p.examples,
		Class:    "mobile-only",
	}))

	sb.WriteString(components.RenderInterlude(components.DoklabInterlude()))
	if s, ok := p.section(ConfigID); ok {
		s.Render(&sb)
		sb.WriteString("\n")
	}
	sb.WriteString(components.RenderCTA(components.DoklabCTA(meta)))
	sb.WriteString("</main>\n")
	sb.WriteString(components.RenderFooter(components.DoklabFooter(meta, p.opts.Now().Year())))

	return sb.String()
}
