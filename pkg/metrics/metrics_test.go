package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounterAndGauge(t *testing.T) {
	m := New("")
	m.SessionsTotal.Inc()
	m.SessionsTotal.Add(2)
	m.LiveSessions.Inc()
	m.LiveSessions.Inc()
	m.LiveSessions.Dec()

	if got := m.SessionsTotal.Value(); got != 3 {
		t.Errorf("sessions total = %d, want 3", got)
	}
	if got := m.LiveSessions.Value(); got != 1 {
		t.Errorf("live sessions = %d, want 1", got)
	}
}

func TestCounterVec_Limit(t *testing.T) {
	cv := NewCounterVec("x_total", "x", "event", 2)
	cv.Inc("step:intersect")
	cv.Inc("tab:select")
	cv.Inc("made:up")
	cv.Inc("also:made:up")
	cv.Inc("step:intersect")

	want := map[string]int64{"step:intersect": 2, "tab:select": 1, OtherLabel: 2}
	got := cv.Values()
	if len(got) != len(want) {
		t.Fatalf("values = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d", k, got[k], v)
		}
	}
	if cv.Value("made:up") != 0 {
		t.Error("label beyond the limit got its own series")
	}
}

func TestCounterVec_Concurrent(t *testing.T) {
	cv := NewCounterVec("x_total", "x", "event", 4)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cv.Inc(fmt.Sprintf("e%d", j%3))
			}
		}()
	}
	wg.Wait()

	var total int64
	for _, v := range cv.Values() {
		total += v
	}
	if total != 800 {
		t.Errorf("total = %d, want 800", total)
	}
}

func TestHistogram_Stats(t *testing.T) {
	h := NewHistogram("h", "h")
	if s := h.Stats(); s.Count != 0 || s.Avg != 0 {
		t.Errorf("empty stats = %+v", s)
	}

	h.Observe(3)
	h.Observe(1)
	h.ObserveDuration(2 * time.Second)

	s := h.Stats()
	if s.Count != 3 || s.Sum != 6 || s.Min != 1 || s.Max != 3 || s.Avg != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHandler(t *testing.T) {
	m := New("doklab")
	m.Events.Inc("step:intersect")
	m.SessionsRejected.Inc("per_ip")
	m.RenderDuration.Observe(0.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %s", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE doklab_live_sessions gauge",
		"doklab_live_sessions 0\n",
		`doklab_events_total{event="step:intersect"} 1`,
		`doklab_live_sessions_rejected_total{reason="per_ip"} 1`,
		"# TYPE doklab_render_duration_seconds summary",
		"doklab_render_duration_seconds_sum 0.5\n",
		"doklab_render_duration_seconds_count 1\n",
		"doklab_highlight_stale_total 0\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}
