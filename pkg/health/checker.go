// Package health provides health check endpoints.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// Status represents the health status of a service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultTimeout bounds checks registered without a timeout.
const DefaultTimeout = 5 * time.Second

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Status     Status  `json:"status"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
	Details    any     `json:"details,omitempty"`
}

// Report is the overall health status.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckFunc reports an unhealthy dependency by returning an error.
type CheckFunc func(ctx context.Context) error

// Check defines a single health check.
type Check struct {
	Name    string
	Fn      CheckFunc
	Timeout time.Duration
	// Critical failures make the overall status unhealthy; others degrade it.
	Critical bool
}

// Checker runs registered checks.
type Checker struct {
	checks  []Check
	version string
	mu      sync.RWMutex
}

// NewChecker creates a checker reporting version.
func NewChecker(version string) *Checker {
	return &Checker{version: version}
}

// Add registers a non-critical check.
func (hc *Checker) Add(name string, fn CheckFunc, timeout time.Duration) {
	hc.register(Check{Name: name, Fn: fn, Timeout: timeout})
}

// AddCritical registers a critical check.
func (hc *Checker) AddCritical(name string, fn CheckFunc, timeout time.Duration) {
	hc.register(Check{Name: name, Fn: fn, Timeout: timeout, Critical: true})
}

func (hc *Checker) register(c Check) {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Check runs all checks concurrently.
func (hc *Checker) Check(ctx context.Context) Report {
	hc.mu.RLock()
	checks := make([]Check, len(hc.checks))
	copy(checks, hc.checks)
	hc.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
		Version:   hc.version,
	}
	for i, c := range checks {
		res := results[i]
		report.Checks[c.Name] = res
		if res.Status == StatusHealthy {
			continue
		}
		if c.Critical {
			report.Status = StatusUnhealthy
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

func run(ctx context.Context, c Check) (res CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("panic: %v", r)}
		}
		res.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	}()

	err := c.Fn(ctx)
	if err == nil {
		return CheckResult{Status: StatusHealthy}
	}
	res = CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	var he *Error
	if errors.As(err, &he) {
		res.Details = he.Details
	}
	return res
}

// LivenessHandler returns 200 while the process is running.
func (hc *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	})
}

// ReadinessHandler returns 200 unless a critical check fails.
func (hc *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Check(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// CapacityCheck fails once count reaches max. A non-positive max disables
// the check.
func CapacityCheck(what string, count func() int, max int) CheckFunc {
	return func(ctx context.Context) error {
		n := count()
		if max > 0 && n >= max {
			return &Error{
				Message: what + " at capacity",
				Details: map[string]any{"current": n, "max": max},
			}
		}
		return nil
	}
}

// Error is a check failure with details.
type Error struct {
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}
