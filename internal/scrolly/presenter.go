package scrolly

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
	"github.com/manuschillerdev/doklab-site/pkg/metrics"
)

// ErrNotMounted is returned when a presenter is used before Mount.
var ErrNotMounted = errors.New("presenter not mounted")

// State is the presenter's lifecycle state.
type State int

const (
	// StateIdle means no step has been observed yet.
	StateIdle State = iota
	// StateDisplaying means the highlighted tabs of the active step are shown.
	StateDisplaying
	// StateRecomputing means a highlight computation for the active step is in
	// flight while the previous tabs stay on screen.
	StateRecomputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDisplaying:
		return "displaying"
	case StateRecomputing:
		return "recomputing"
	default:
		return "unknown"
	}
}

// Config tunes a presenter.
type Config struct {
	Observer      ObserverConfig
	Theme         string
	MaxTransition time.Duration
}

// DefaultConfig returns the configuration used on the landing page.
func DefaultConfig() Config {
	return Config{
		Observer:      DefaultObserverConfig(),
		Theme:         highlight.DefaultTheme,
		MaxTransition: DefaultMaxTransition,
	}
}

// Poster delivers a message to the goroutine that owns the presenter. It
// reports false when that goroutine is gone.
type Poster func(msg any) bool

// HighlightResult is posted back when a highlight computation finishes.
type HighlightResult struct {
	Presenter  string
	Generation uint64
	Step       int
	Tabs       []highlight.HighlightedTab
	Err        error
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithConfig sets the presenter configuration.
func WithConfig(cfg Config) Option {
	return func(p *Presenter) {
		p.cfg = cfg
	}
}

// WithSurface sets the rendering surface.
func WithSurface(s Surface) Option {
	return func(p *Presenter) {
		p.surface = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Presenter) {
		p.logger = l
	}
}

// WithMetrics records highlight timings, failures and dropped results in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Presenter) {
		p.metrics = m
	}
}

// Presenter is the per-instance state machine of a scrollycoding section.
//
// A presenter is owned by a single event loop: every method except the
// highlight goroutines it starts must be called from that loop. Highlight
// completions come back through the Poster and are applied with HandleResult
// only if their generation is still current.
type Presenter struct {
	id          string
	catalog     *Catalog
	highlighter highlight.Highlighter
	cfg         Config
	surface     Surface
	logger      logging.Logger
	metrics     *metrics.Metrics
	observer    *Observer
	focus       *FocusScroller

	ctx      context.Context
	cancel   context.CancelFunc
	post     Poster
	inflight sync.WaitGroup

	state      State
	active     int
	displayed  int
	activeTab  string
	tabs       []highlight.HighlightedTab
	generation uint64
	terminated bool

	effects  bool
	snapshot []TokenBox
}

// NewPresenter creates a presenter over catalog.
func NewPresenter(id string, catalog *Catalog, h highlight.Highlighter, opts ...Option) *Presenter {
	p := &Presenter{
		id:          id,
		catalog:     catalog,
		highlighter: h,
		cfg:         DefaultConfig(),
		surface:     NopSurface{},
		logger:      logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.observer = NewObserver(p.cfg.Observer)
	p.focus = NewFocusScroller(p.surface, p.PanelID())
	p.logger = p.logger.With(logging.String("presenter", id))
	return p
}

// ID returns the presenter id.
func (p *Presenter) ID() string { return p.id }

// Catalog returns the presenter's catalog.
func (p *Presenter) Catalog() *Catalog { return p.catalog }

// State returns the current state.
func (p *Presenter) State() State { return p.state }

// ActiveStep returns the active step index.
func (p *Presenter) ActiveStep() int { return p.active }

// DisplayedStep returns the index of the step whose tabs are on screen, or -1.
func (p *Presenter) DisplayedStep() int {
	if p.tabs == nil {
		return -1
	}
	return p.displayed
}

// ActiveTab returns the selected tab name.
func (p *Presenter) ActiveTab() string { return p.activeTab }

// Tabs returns the displayed highlighted tabs.
func (p *Presenter) Tabs() []highlight.HighlightedTab {
	return append([]highlight.HighlightedTab(nil), p.tabs...)
}

// Generation returns the current highlight generation.
func (p *Presenter) Generation() uint64 { return p.generation }

// Observer returns the presenter's scroll observer.
func (p *Presenter) Observer() *Observer { return p.observer }

// PanelID is the element id of the scrolling code panel.
func (p *Presenter) PanelID() string { return p.id + "-panel" }

// CodePrefix is the element id prefix of the displayed code.
func (p *Presenter) CodePrefix() string { return p.id + "-code" }

// RegionID is the element id of step i's scroll region.
func (p *Presenter) RegionID(i int) string { return fmt.Sprintf("%s-step-%d", p.id, i) }

// ActiveCode returns the highlighted code of the selected tab.
func (p *Presenter) ActiveCode() *highlight.Code {
	for _, t := range p.tabs {
		if t.Name == p.activeTab {
			return t.Code
		}
	}
	return nil
}

// Mount subscribes the step regions and pre-renders the first step so the
// initial page is complete before any scroll event. The presenter stays Idle
// until a step is observed.
func (p *Presenter) Mount(ctx context.Context, post Poster) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.post = post

	for i := 0; i < p.catalog.Len(); i++ {
		p.observer.Observe(p.RegionID(i), i)
	}

	tabs, err := highlight.Tabs(p.ctx, p.highlighter, p.catalog.snippets(0), p.cfg.Theme)
	if err != nil {
		p.logger.Error("pre-render failed", logging.Err(err))
		return nil
	}
	p.show(0, tabs)
	return nil
}

// Intersect feeds an intersection batch to the observer. It reports whether
// the presenter changed.
func (p *Presenter) Intersect(viewport float64, batch []Entry) bool {
	if p.terminated {
		return false
	}
	index, ok := p.observer.Process(viewport, batch)
	if !ok {
		return false
	}
	return p.activate(index)
}

func (p *Presenter) activate(i int) bool {
	if !p.catalog.Valid(i) {
		return false
	}

	switch p.state {
	case StateIdle:
		if p.tabs != nil && p.displayed == i {
			p.active = i
			p.state = StateDisplaying
			p.logger.Debug("displaying pre-rendered step", logging.Int("step", i))
			return true
		}
	case StateDisplaying, StateRecomputing:
		if i == p.active {
			return false
		}
	}

	p.dispatch(i)
	return true
}

func (p *Presenter) dispatch(step int) {
	p.active = step
	p.state = StateRecomputing
	p.generation++

	gen := p.generation
	ctx := p.ctx
	post := p.post
	snippets := p.catalog.snippets(step)

	if ctx == nil || post == nil {
		p.HandleResult(HighlightResult{Presenter: p.id, Generation: gen, Step: step, Err: ErrNotMounted})
		return
	}

	p.logger.Debug("highlight dispatched", logging.Int("step", step), logging.Uint64("generation", gen))

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()

		res := HighlightResult{Presenter: p.id, Generation: gen, Step: step}
		start := time.Now()
		func() {
			defer func() {
				if r := recover(); r != nil {
					res.Err = fmt.Errorf("%w: %v", highlight.ErrPanic, r)
				}
			}()
			res.Tabs, res.Err = highlight.Tabs(ctx, p.highlighter, snippets, p.cfg.Theme)
		}()
		if p.metrics != nil && res.Err == nil {
			p.metrics.HighlightDuration.Since(start)
		}

		if ctx.Err() != nil {
			return
		}
		post(res)
	}()
}

// HandleResult applies a finished highlight computation. Stale generations
// are dropped. A failure keeps the last good tabs and moves the active step
// back to the displayed one. It reports whether the presenter changed.
func (p *Presenter) HandleResult(res HighlightResult) bool {
	if p.terminated || res.Generation != p.generation {
		if p.metrics != nil && !p.terminated {
			p.metrics.StaleResults.Inc()
		}
		p.logger.Debug("stale highlight dropped",
			logging.Int("step", res.Step),
			logging.Uint64("generation", res.Generation),
			logging.Uint64("current", p.generation),
		)
		return false
	}

	if res.Err == nil && len(res.Tabs) == 0 {
		res.Err = ErrNoTabs
	}
	if res.Err != nil {
		if p.metrics != nil {
			p.metrics.HighlightFailures.Inc()
		}
		p.logger.Error("highlight failed",
			logging.Int("step", res.Step),
			logging.Uint64("generation", res.Generation),
			logging.Err(res.Err),
		)
		if p.tabs != nil {
			p.active = p.displayed
			p.state = StateDisplaying
		} else {
			p.state = StateIdle
		}
		return true
	}

	if prev := p.ActiveCode(); prev != nil && p.activeTab == res.Tabs[0].Name {
		boxes, err := MeasureTokens(p.surface, p.CodePrefix(), prev)
		if err != nil {
			p.logger.Debug("token snapshot skipped", logging.Err(err))
		}
		p.snapshot = boxes
	} else if p.activeTab != res.Tabs[0].Name {
		// The panel now shows a different file: scroll it like a fresh one.
		p.focus.Reset()
	}

	p.show(res.Step, res.Tabs)
	p.state = StateDisplaying
	return true
}

func (p *Presenter) show(step int, tabs []highlight.HighlightedTab) {
	p.tabs = tabs
	p.displayed = step
	p.activeTab = tabs[0].Name
	p.effects = true
}

// SelectTab switches the displayed tab. Names that are not among the displayed
// tabs are ignored. It reports whether the presenter changed.
func (p *Presenter) SelectTab(name string) bool {
	if p.terminated || name == p.activeTab {
		return false
	}
	found := false
	for _, t := range p.tabs {
		if t.Name == name {
			found = true
			break
		}
	}
	if !found {
		p.logger.Debug("tab reference ignored", logging.String("tab", name))
		return false
	}

	p.activeTab = name
	p.snapshot = nil
	p.effects = true
	p.focus.Reset()
	return true
}

// AfterRender runs the visual effects of the last change once the new markup
// is on the surface: token transitions from the previous code of the same tab,
// then focus scrolling.
func (p *Presenter) AfterRender() {
	if !p.effects || p.terminated {
		return
	}
	p.effects = false

	code := p.ActiveCode()
	if code == nil {
		return
	}
	if ls, ok := p.surface.(LayoutSyncer); ok {
		ls.SyncLayout(p.PanelID(), p.CodePrefix(), code)
	}

	if p.snapshot != nil {
		prev := p.snapshot
		p.snapshot = nil

		next, err := MeasureTokens(p.surface, p.CodePrefix(), code)
		if err != nil {
			p.logger.Debug("token transition skipped", logging.Err(err))
		} else {
			for _, a := range PlanTransitions(prev, next).Animations(p.cfg.MaxTransition) {
				if err := p.surface.Animate(a.ID, a.Keyframes, a.Timing); err != nil {
					p.logger.Debug("animate failed", logging.String("id", a.ID), logging.Err(err))
					break
				}
			}
		}
	}

	var lines []string
	for _, i := range code.FocusedLines() {
		lines = append(lines, highlight.LineID(p.CodePrefix(), i))
	}
	if _, err := p.focus.Scroll(lines); err != nil {
		p.logger.Debug("focus scroll failed", logging.Err(err))
	}
}

// Terminate cancels in-flight computations and releases every region
// subscription. It is safe to call more than once.
func (p *Presenter) Terminate() {
	if p.terminated {
		return
	}
	p.terminated = true
	p.generation++
	if p.cancel != nil {
		p.cancel()
	}
	p.observer.Disconnect()
}

// Wait blocks until every highlight goroutine has returned.
func (p *Presenter) Wait() {
	p.inflight.Wait()
}
