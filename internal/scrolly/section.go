package scrolly

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/pkg/js"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
	"github.com/manuschillerdev/doklab-site/pkg/metrics"
	"github.com/manuschillerdev/doklab-site/pkg/protocol"
)

// Client events handled by a section.
const (
	EventIntersect   = "step:intersect"
	EventTabSelect   = "tab:select"
	EventPanelScroll = "panel:scroll"
)

// ErrUnknownEvent is returned for events a section does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// IntersectEvent is a batch of step region geometry reported by the client.
type IntersectEvent struct {
	Presenter string  `json:"presenter"`
	Viewport  float64 `json:"viewport"`
	Entries   []Entry `json:"entries"`
}

// TabSelectEvent is sent by tab strip buttons and description references.
type TabSelectEvent struct {
	Presenter string `json:"presenter"`
	Tab       string `json:"tab"`
}

// PanelScrollEvent reports the code panel's scroll position.
type PanelScrollEvent struct {
	Presenter string  `json:"presenter"`
	ScrollTop float64 `json:"scrollTop"`
	Height    float64 `json:"height"`
}

// SectionConfig builds a Section.
type SectionConfig struct {
	ID          string
	Catalog     *Catalog
	Highlighter highlight.Highlighter
	Presenter   Config
	Layout      Layout
	Options     SectionOptions
	Logger      logging.Logger
	Metrics     *metrics.Metrics
}

// Section connects a presenter to a live view. It decodes client events,
// renders the section markup and sends queued surface commands through sink
// after each render.
type Section struct {
	presenter *Presenter
	surface   *GridSurface
	opts      SectionOptions
	marked    int
}

// NewSection creates a section whose surface sends commands to sink.
func NewSection(cfg SectionConfig, sink CommandSink) *Section {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	surface := NewGridSurface(cfg.Layout, sink)
	opts := []Option{
		WithConfig(cfg.Presenter),
		WithSurface(surface),
		WithLogger(logger),
	}
	if cfg.Metrics != nil {
		opts = append(opts, WithMetrics(cfg.Metrics))
	}
	p := NewPresenter(cfg.ID, cfg.Catalog, cfg.Highlighter, opts...)
	return &Section{
		presenter: p,
		surface:   surface,
		opts:      cfg.Options,
		marked:    -1,
	}
}

// ID returns the presenter id.
func (s *Section) ID() string { return s.presenter.ID() }

// Presenter returns the underlying presenter.
func (s *Section) Presenter() *Presenter { return s.presenter }

// Surface returns the section's surface.
func (s *Section) Surface() *GridSurface { return s.surface }

// Mount mounts the presenter. post may be nil for a static render.
func (s *Section) Mount(ctx context.Context, post Poster) error {
	if post == nil {
		post = func(any) bool { return false }
	}
	return s.presenter.Mount(ctx, post)
}

// HandleEvent applies a client event and reports whether the section changed.
func (s *Section) HandleEvent(event string, payload map[string]any) (bool, error) {
	switch event {
	case EventIntersect:
		var e IntersectEvent
		if err := protocol.DecodePayload(payload, &e); err != nil {
			return false, err
		}
		return s.presenter.Intersect(e.Viewport, e.Entries), nil

	case EventTabSelect:
		var e TabSelectEvent
		if err := protocol.DecodePayload(payload, &e); err != nil {
			return false, err
		}
		if e.Tab == "" {
			return false, fmt.Errorf("%w: missing tab", protocol.ErrBadPayload)
		}
		return s.presenter.SelectTab(e.Tab), nil

	case EventPanelScroll:
		var e PanelScrollEvent
		if err := protocol.DecodePayload(payload, &e); err != nil {
			return false, err
		}
		s.surface.SetScroll(s.presenter.PanelID(), e.ScrollTop, e.Height)
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
}

// HandleResult applies a highlight completion addressed to this section.
func (s *Section) HandleResult(res HighlightResult) bool {
	if res.Presenter != s.presenter.ID() {
		return false
	}
	return s.presenter.HandleResult(res)
}

// Render writes the section markup.
func (s *Section) Render(sb *strings.Builder) {
	RenderSection(sb, s.presenter, s.opts)
}

// AfterRender runs presenter effects, marks the active step on the client and
// flushes the queued commands.
func (s *Section) AfterRender() error {
	s.presenter.AfterRender()

	p := s.presenter
	if p.State() != StateIdle && p.ActiveStep() != s.marked {
		region := "#" + p.RegionID(p.ActiveStep())
		s.surface.Queue(
			js.JS.RemoveClass(p.StepSelector(), ActiveClass),
			js.JS.RemoveAttr(p.StepSelector(), "aria-current"),
			js.JS.AddClass(region, ActiveClass),
			js.JS.SetAttr(region, "aria-current", "step"),
		)
		s.marked = p.ActiveStep()
	}

	return s.surface.Flush()
}

// Terminate stops the presenter.
func (s *Section) Terminate() {
	s.presenter.Terminate()
}
