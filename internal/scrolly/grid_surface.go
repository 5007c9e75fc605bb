package scrolly

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/pkg/js"
)

// Layout is the monospace geometry of a code panel, in CSS pixels.
type Layout struct {
	LineHeight  float64 `koanf:"line_height"`
	CharWidth   float64 `koanf:"char_width"`
	PaddingTop  float64 `koanf:"padding_top"`
	PaddingLeft float64 `koanf:"padding_left"`
	PanelHeight float64 `koanf:"panel_height"`
}

// DefaultLayout matches the stylesheet: 14px text with a 20px line box, 24px
// padding and a 600px tall panel.
func DefaultLayout() Layout {
	return Layout{
		LineHeight:  20,
		CharWidth:   8.4,
		PaddingTop:  24,
		PaddingLeft: 24,
		PanelHeight: 600,
	}
}

// CommandSink receives client commands produced by a GridSurface.
type CommandSink func(cmds js.Commands) error

type panelState struct {
	scrollTop float64
	height    float64
	rects     map[string]Rect // unscrolled, relative to content top
}

// GridSurface is a Surface backed by a layout model of the displayed code.
// Geometry is derived from line and column positions; scroll and animation
// requests are queued as client commands and sent on Flush.
type GridSurface struct {
	layout Layout
	sink   CommandSink

	mu      sync.Mutex
	panels  map[string]*panelState
	owner   map[string]string // element id -> panel
	pending js.Commands
}

// NewGridSurface creates a surface that sends its commands to sink.
func NewGridSurface(layout Layout, sink CommandSink) *GridSurface {
	return &GridSurface{
		layout: layout,
		sink:   sink,
		panels: make(map[string]*panelState),
		owner:  make(map[string]string),
	}
}

func (g *GridSurface) panel(id string) *panelState {
	p, ok := g.panels[id]
	if !ok {
		p = &panelState{height: g.layout.PanelHeight, rects: make(map[string]Rect)}
		g.panels[id] = p
	}
	return p
}

// SyncLayout replaces the geometry of panel with the layout of code.
func (g *GridSurface) SyncLayout(panel, prefix string, code *highlight.Code) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.panel(panel)
	for id := range p.rects {
		delete(g.owner, id)
	}
	p.rects = make(map[string]Rect)
	if code == nil {
		return
	}

	for i, line := range code.Lines {
		top := g.layout.PaddingTop + float64(i)*g.layout.LineHeight
		lineID := highlight.LineID(prefix, i)
		p.rects[lineID] = Rect{
			Top:    top,
			Left:   g.layout.PaddingLeft,
			Width:  float64(line.Width()) * g.layout.CharWidth,
			Height: g.layout.LineHeight,
		}
		g.owner[lineID] = panel

		for j, tok := range line.Tokens {
			id := highlight.TokenID(prefix, i, j)
			p.rects[id] = Rect{
				Top:    top,
				Left:   g.layout.PaddingLeft + float64(tok.Column)*g.layout.CharWidth,
				Width:  float64(utf8.RuneCountInString(tok.Text)) * g.layout.CharWidth,
				Height: g.layout.LineHeight,
			}
			g.owner[id] = panel
		}
	}
}

// SetScroll records the scroll position reported by the client.
func (g *GridSurface) SetScroll(panel string, top, height float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.panel(panel)
	p.scrollTop = max(top, 0)
	if height > 0 {
		p.height = height
	}
}

// Measure implements Surface.
func (g *GridSurface) Measure(id string) (Rect, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	panel, ok := g.owner[id]
	if !ok {
		return Rect{}, ErrUnknownElement
	}
	p := g.panels[panel]
	r := p.rects[id]
	r.Top -= p.scrollTop
	return r, nil
}

// Scroll implements Surface.
func (g *GridSurface) Scroll(panel string) (ScrollState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.panel(panel)
	return ScrollState{Top: p.scrollTop, Height: p.height}, nil
}

// ScrollTo implements Surface. The model scrolls immediately; the client
// catches up when the command is flushed.
func (g *GridSurface) ScrollTo(panel string, top float64, behavior ScrollBehavior) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.panel(panel)
	p.scrollTop = max(top, 0)
	g.pending = append(g.pending, js.JS.ScrollTo(selector(panel), p.scrollTop, string(behavior)))
	return nil
}

// Animate implements Surface.
func (g *GridSurface) Animate(id string, keyframes []Keyframe, timing Timing) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.owner[id]; !ok {
		return ErrUnknownElement
	}
	g.pending = append(g.pending, js.JS.Animate(selector(id), keyframes,
		js.Duration(timing.Duration.Milliseconds()),
		js.Delay(timing.Delay.Milliseconds()),
		js.Easing(timing.Easing),
		js.Fill("both"),
	))
	return nil
}

// Queue adds arbitrary commands to the next flush.
func (g *GridSurface) Queue(cmds ...js.Command) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, cmds...)
}

// Flush sends queued commands.
func (g *GridSurface) Flush() error {
	g.mu.Lock()
	cmds := g.pending
	g.pending = nil
	g.mu.Unlock()

	if len(cmds) == 0 || g.sink == nil {
		return nil
	}
	return g.sink(cmds)
}

func selector(id string) string {
	if strings.HasPrefix(id, "#") {
		return id
	}
	return "#" + id
}
