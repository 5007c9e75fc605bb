// Package shutdown stops the server in stages when the process is asked to
// exit: stop accepting requests, close live sessions, then release the rest.
package shutdown

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/manuschillerdev/doklab-site/pkg/logging"
)

var (
	ErrShutdownTimeout = errors.New("shutdown timed out")
	ErrAlreadyClosed   = errors.New("shutdown handler already closed")
)

// Stages. Hooks registered with the same priority run concurrently; a stage
// starts once the previous one has finished.
const (
	PriorityHTTP    = 100
	PriorityLive    = 200
	PriorityWatcher = 300
	PriorityLast    = 1000
)

// Hook is a named shutdown step.
type Hook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Config configures a Handler.
type Config struct {
	// Timeout bounds the whole shutdown, not each hook.
	Timeout time.Duration
	Signals []os.Signal
	Logger  logging.Logger
}

// DefaultConfig waits 30s after SIGINT or SIGTERM.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		Logger:  logging.NopLogger{},
	}
}

// Handler collects hooks and runs them once.
type Handler struct {
	config *Config
	done   chan struct{}

	mu     sync.Mutex
	hooks  []Hook
	closed bool
}

func NewHandler(config *Config) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = logging.NopLogger{}
	}
	return &Handler{config: config, done: make(chan struct{})}
}

func (h *Handler) Register(name string, priority int, fn func(ctx context.Context) error) {
	h.mu.Lock()
	h.hooks = append(h.hooks, Hook{Name: name, Priority: priority, Fn: fn})
	h.mu.Unlock()
}

// Wait blocks until a configured signal arrives or ctx ends, then shuts
// down. It returns nil at once if Shutdown was already called.
func (h *Handler) Wait(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, h.config.Signals...)
	defer stop()

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
	}
	h.config.Logger.Info("shutdown requested")
	return h.Shutdown()
}

// Shutdown runs every stage in priority order. Hook errors are joined and do
// not stop later stages; running out of time does.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrAlreadyClosed
	}
	h.closed = true
	close(h.done)
	hooks := slices.Clone(h.hooks)
	h.mu.Unlock()

	slices.SortStableFunc(hooks, func(a, b Hook) int { return cmp.Compare(a.Priority, b.Priority) })

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var errs []error
	for stage := range stages(hooks) {
		errs = append(errs, h.runStage(ctx, stage)...)
		if ctx.Err() != nil {
			return errors.Join(append(errs, ErrShutdownTimeout)...)
		}
	}
	return errors.Join(errs...)
}

// stages yields runs of hooks sharing a priority. hooks must be sorted.
func stages(hooks []Hook) func(yield func([]Hook) bool) {
	return func(yield func([]Hook) bool) {
		for len(hooks) > 0 {
			n := 1
			for n < len(hooks) && hooks[n].Priority == hooks[0].Priority {
				n++
			}
			if !yield(hooks[:n]) {
				return
			}
			hooks = hooks[n:]
		}
	}
}

func (h *Handler) runStage(ctx context.Context, stage []Hook) []error {
	errs := make([]error, len(stage))
	var g errgroup.Group
	for i, hook := range stage {
		g.Go(func() error {
			start := time.Now()
			err := hook.Fn(ctx)
			h.config.Logger.Debug("shutdown hook finished",
				logging.String("hook", hook.Name),
				logging.Duration("took", time.Since(start)),
				logging.Err(err))
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", hook.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return slices.DeleteFunc(errs, func(err error) bool { return err == nil })
}

// Done is closed when shutdown starts.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
