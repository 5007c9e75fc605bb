// Package devserver reloads site content while developing: it watches the
// content directory, rebuilds on change and tells connected browsers to
// refresh.
package devserver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/manuschillerdev/doklab-site/pkg/logging"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// ReloadEvent is pushed to every live socket after a rebuild.
const ReloadEvent = "reload"

var (
	ErrAlreadyStarted = errors.New("reloader already started")
	ErrNotDir         = errors.New("content path is not a directory")
)

// Broadcaster pushes an event to all connected clients.
type Broadcaster interface {
	Broadcast(event string, payload map[string]any) int
}

// ReloadFunc rebuilds everything derived from the content directory.
type ReloadFunc func() error

// Option configures a Reloader.
type Option func(*Reloader)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(r *Reloader) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithBroadcaster sets where reload events go.
func WithBroadcaster(b Broadcaster) Option {
	return func(r *Reloader) { r.notify = b }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Reloader) { r.logger = l }
}

// Reloader watches a directory tree and runs a ReloadFunc after changes.
type Reloader struct {
	dir      string
	debounce time.Duration
	reload   ReloadFunc
	notify   Broadcaster
	logger   logging.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	started bool
	lastErr error
	done    chan struct{}
}

// New creates a reloader for dir.
func New(dir string, reload ReloadFunc, opts ...Option) (*Reloader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDir
	}

	r := &Reloader{
		dir:      abs,
		debounce: DefaultDebounce,
		reload:   reload,
		logger:   logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start begins watching. The watch ends when ctx is cancelled or Close is
// called.
func (r *Reloader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addTree(fsw, r.dir); err != nil {
		fsw.Close()
		return err
	}

	r.fsw = fsw
	r.started = true
	r.done = make(chan struct{})
	go r.loop(ctx, fsw, r.done)

	r.logger.Info("watching content", logging.String("dir", r.dir))
	return nil
}

// Close stops watching and drops a pending rebuild.
func (r *Reloader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil
	}
	r.started = false
	if r.timer != nil {
		r.timer.Stop()
	}
	close(r.done)
	return r.fsw.Close()
}

// Err returns the error of the most recent rebuild.
func (r *Reloader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Trigger schedules a rebuild after the debounce period. Triggers within the
// period restart it.
func (r *Reloader) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.run)
}

func (r *Reloader) loop(ctx context.Context, fsw *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			_ = r.Close()
			return
		case <-done:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fsw, event.Name); err != nil {
						r.logger.Warn("watch directory failed", logging.String("dir", event.Name), logging.Err(err))
					}
				}
			}
			r.logger.Debug("content changed", logging.String("file", event.Name), logging.String("op", event.Op.String()))
			r.Trigger()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			r.logger.Warn("watch error", logging.Err(err))
		}
	}
}

func (r *Reloader) run() {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return
	}

	start := time.Now()
	err := r.reload()

	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("content reload failed", logging.Err(err))
	} else {
		r.logger.Info("content reloaded", logging.Duration("took", time.Since(start)))
	}

	if r.notify != nil {
		n := r.notify.Broadcast(ReloadEvent, map[string]any{"ok": err == nil})
		r.logger.Debug("reload broadcast", logging.Int("clients", n))
	}
}

// addTree watches dir and every directory below it. fsnotify watches are
// not recursive.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && ignored(p) {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}

// ignored skips dotfiles and editor backups.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasPrefix(base, "#")
}
