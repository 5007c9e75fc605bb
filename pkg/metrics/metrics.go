// Package metrics counts live sessions, client events, renders and highlight
// work, and serves the values in the Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "doklab"

// OtherLabel collects label values beyond a CounterVec's limit.
const OtherLabel = "other"

// Metrics holds the site's metrics.
type Metrics struct {
	// Live sessions
	LiveSessions     *Gauge
	SessionsTotal    *Counter
	SessionsRejected *CounterVec

	// Client events
	Events      *CounterVec
	EventErrors *CounterVec
	Panics      *Counter

	// Renders
	RenderDuration *Histogram
	DiffSize       *Histogram

	// Presenters
	HighlightDuration *Histogram
	HighlightFailures *Counter
	StaleResults      *Counter

	all []collector
}

type collector interface {
	collect(w io.Writer)
}

// New creates the metric set with names under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	n := func(s string) string { return namespace + "_" + s }

	m := &Metrics{
		LiveSessions:     NewGauge(n("live_sessions"), "Open live sessions."),
		SessionsTotal:    NewCounter(n("live_sessions_total"), "Live sessions started."),
		SessionsRejected: NewCounterVec(n("live_sessions_rejected_total"), "Websocket upgrades refused.", "reason", 8),

		Events:      NewCounterVec(n("events_total"), "Client events received.", "event", 16),
		EventErrors: NewCounterVec(n("event_errors_total"), "Client events answered with an error reply.", "event", 16),
		Panics:      NewCounter(n("panics_total"), "Component panics recovered."),

		RenderDuration: NewHistogram(n("render_duration_seconds"), "Time to render a live view."),
		DiffSize:       NewHistogram(n("diff_size_bytes"), "Size of the slot diffs sent."),

		HighlightDuration: NewHistogram(n("highlight_duration_seconds"), "Time to highlight every tab of a step."),
		HighlightFailures: NewCounter(n("highlight_failures_total"), "Highlight computations that failed."),
		StaleResults:      NewCounter(n("highlight_stale_total"), "Highlight results dropped for an outdated generation."),
	}
	m.all = []collector{
		m.LiveSessions, m.SessionsTotal, m.SessionsRejected,
		m.Events, m.EventErrors, m.Panics,
		m.RenderDuration, m.DiffSize,
		m.HighlightDuration, m.HighlightFailures, m.StaleResults,
	}
	return m
}

// Expose writes every metric in the Prometheus text format.
func (m *Metrics) Expose(w io.Writer) {
	for _, c := range m.all {
		c.collect(w)
	}
}

// Handler serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.Expose(w)
	})
}

func header(w io.Writer, name, help, kind string) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

// Counter only goes up.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// NewCounter creates a counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() { c.value.Add(1) }
func (c *Counter) Add(n int64) { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

func (c *Counter) collect(w io.Writer) {
	header(w, c.name, c.help, "counter")
	fmt.Fprintf(w, "%s %d\n", c.name, c.Value())
}

// Gauge goes up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

// NewGauge creates a gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Inc() { g.value.Add(1) }
func (g *Gauge) Dec() { g.value.Add(-1) }
func (g *Gauge) Set(v int64) { g.value.Store(v) }
func (g *Gauge) Value() int64 { return g.value.Load() }

func (g *Gauge) collect(w io.Writer) {
	header(w, g.name, g.help, "gauge")
	fmt.Fprintf(w, "%s %d\n", g.name, g.Value())
}

// CounterVec is a counter partitioned by one label. Label values come from
// clients, so only the first limit distinct values get their own series; the
// rest are counted under OtherLabel.
type CounterVec struct {
	name  string
	help  string
	label string
	limit int

	mu     sync.RWMutex
	values map[string]*atomic.Int64
}

// NewCounterVec creates a counter vector.
func NewCounterVec(name, help, label string, limit int) *CounterVec {
	return &CounterVec{
		name:   name,
		help:   help,
		label:  label,
		limit:  limit,
		values: make(map[string]*atomic.Int64),
	}
}

// Inc increments the series for value.
func (cv *CounterVec) Inc(value string) {
	cv.series(value).Add(1)
}

func (cv *CounterVec) series(value string) *atomic.Int64 {
	cv.mu.RLock()
	c, ok := cv.values[value]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.values[value]; ok {
		return c
	}
	if cv.limit > 0 && len(cv.values) >= cv.limit && value != OtherLabel {
		if _, ok := cv.values[OtherLabel]; !ok {
			cv.values[OtherLabel] = new(atomic.Int64)
		}
		return cv.values[OtherLabel]
	}
	c = new(atomic.Int64)
	cv.values[value] = c
	return c
}

// Value returns the count for value.
func (cv *CounterVec) Value(value string) int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	if c, ok := cv.values[value]; ok {
		return c.Load()
	}
	return 0
}

// Values returns a copy of every series.
func (cv *CounterVec) Values() map[string]int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	out := make(map[string]int64, len(cv.values))
	for k, c := range cv.values {
		out[k] = c.Load()
	}
	return out
}

func (cv *CounterVec) collect(w io.Writer) {
	header(w, cv.name, cv.help, "counter")
	values := cv.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s{%s=%q} %d\n", cv.name, cv.label, k, values[k])
	}
}

// Histogram summarises observed values. It keeps aggregates only and is
// exported as a Prometheus summary without quantiles.
type Histogram struct {
	name string
	help string

	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

// NewHistogram creates a histogram.
func NewHistogram(name, help string) *Histogram {
	return &Histogram{name: name, help: help}
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.count++
	h.sum += v
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Since records the time elapsed since start.
func (h *Histogram) Since(start time.Time) {
	h.ObserveDuration(time.Since(start))
}

// Stats is a snapshot of a histogram.
type Stats struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Avg   float64
}

// Stats returns the current aggregates.
func (h *Histogram) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Stats{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	if h.count > 0 {
		s.Avg = h.sum / float64(h.count)
	}
	return s
}

func (h *Histogram) collect(w io.Writer) {
	s := h.Stats()
	header(w, h.name, h.help, "summary")
	fmt.Fprintf(w, "%s_sum %g\n%s_count %d\n", h.name, s.Sum, h.name, s.Count)
}
