package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// broadcastWorkers bounds concurrent pushes in Broadcast and Shutdown.
const broadcastWorkers = 64

// SocketManager holds the open sockets of the process.
type SocketManager struct {
	mu       sync.RWMutex
	sockets  map[string]*Socket
	shutdown bool
}

func NewSocketManager() *SocketManager {
	return &SocketManager{sockets: map[string]*Socket{}}
}

// Add registers socket. It fails with ErrSocketClosed after Shutdown.
func (sm *SocketManager) Add(socket *Socket) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.shutdown {
		return ErrSocketClosed
	}
	sm.sockets[socket.ID()] = socket
	return nil
}

func (sm *SocketManager) Remove(id string) {
	sm.mu.Lock()
	delete(sm.sockets, id)
	sm.mu.Unlock()
}

func (sm *SocketManager) Get(id string) (*Socket, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sockets[id]
	return s, ok
}

func (sm *SocketManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sockets)
}

func (sm *SocketManager) snapshot() []*Socket {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		out = append(out, s)
	}
	return out
}

// each runs fn for every socket with bounded concurrency.
func each(sockets []*Socket, fn func(*Socket)) {
	var g errgroup.Group
	g.SetLimit(broadcastWorkers)
	for _, s := range sockets {
		g.Go(func() error {
			fn(s)
			return nil
		})
	}
	_ = g.Wait()
}

// Broadcast pushes event to every socket and returns how many accepted it.
// The content reloader uses it to refresh open pages.
func (sm *SocketManager) Broadcast(event string, payload map[string]any) int {
	var delivered atomic.Int64
	each(sm.snapshot(), func(s *Socket) {
		if s.Push(event, payload) == nil {
			delivered.Add(1)
		}
	})
	return int(delivered.Load())
}

// Shutdown refuses new sockets, then tells each client the channel is
// closing and closes it. Message loops see the closed sockets and terminate
// their components.
func (sm *SocketManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	if sm.shutdown {
		sm.mu.Unlock()
		return nil
	}
	sm.shutdown = true
	sm.mu.Unlock()

	each(sm.snapshot(), func(s *Socket) {
		if ctx.Err() == nil {
			_ = s.Push("phx_close", map[string]any{})
		}
		_ = s.Close()
	})
	return ctx.Err()
}

func (sm *SocketManager) IsShutdown() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.shutdown
}

// CleanupInactive closes and drops sockets idle for longer than maxIdle and
// returns how many it removed.
func (sm *SocketManager) CleanupInactive(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	sm.mu.Lock()
	var stale []*Socket
	for id, s := range sm.sockets {
		if s.LastActivity().Before(cutoff) {
			stale = append(stale, s)
			delete(sm.sockets, id)
		}
	}
	sm.mu.Unlock()

	for _, s := range stale {
		_ = s.Close()
	}
	return len(stale)
}
