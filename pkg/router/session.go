package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/manuschillerdev/doklab-site/pkg/core"
	"github.com/manuschillerdev/doklab-site/pkg/transport"
)

// LiveSession is one mounted live view and its connection. Idle tracking
// lives on the socket, which the sweep inspects.
type LiveSession struct {
	ID        string
	SocketID  string
	Topic     string // "lv:<socket id>" until the client joins
	CreatedAt time.Time
	RemoteIP  string

	Component core.Component
	Socket    *core.Socket
	Transport transport.Transport
	Params    core.Params
	Session   core.Session

	mounted atomic.Bool
	version atomic.Uint64
	joinRef atomic.Pointer[string]

	// slotHashes is only touched from the session's message loop, plus the
	// initial render before the loop starts.
	slotHashes map[string]uint64

	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewLiveSession(socketID string, comp core.Component, params core.Params, session core.Session) *LiveSession {
	if params == nil {
		params = core.Params{}
	}
	if session == nil {
		session = core.Session{}
	}
	return &LiveSession{
		ID:        uuid.NewString(),
		SocketID:  socketID,
		Topic:     "lv:" + socketID,
		CreatedAt: time.Now(),
		Component: comp,
		Params:    params,
		Session:   session,
	}
}

func (s *LiveSession) GetSlotHashes() map[string]uint64       { return s.slotHashes }
func (s *LiveSession) SetSlotHashes(hashes map[string]uint64) { s.slotHashes = hashes }

// NextVersion numbers diffs so the client can drop stale ones.
func (s *LiveSession) NextVersion() uint64 { return s.version.Add(1) }

func (s *LiveSession) SetMounted(mounted bool) { s.mounted.Store(mounted) }
func (s *LiveSession) IsMounted() bool         { return s.mounted.Load() }

func (s *LiveSession) SetJoinRef(ref string) { s.joinRef.Store(&ref) }

func (s *LiveSession) GetJoinRef() string {
	if p := s.joinRef.Load(); p != nil {
		return *p
	}
	return ""
}

// SessionManager indexes live sessions by id and by socket, and enforces
// the session cap.
type SessionManager struct {
	mu          sync.RWMutex
	byID        map[string]*LiveSession
	bySocket    map[string]*LiveSession
	maxSessions int
}

// NewSessionManager admits at most maxSessions sessions. Zero means no cap.
func NewSessionManager(maxSessions int) *SessionManager {
	return &SessionManager{
		byID:        map[string]*LiveSession{},
		bySocket:    map[string]*LiveSession{},
		maxSessions: maxSessions,
	}
}

func (m *SessionManager) full() bool {
	return m.maxSessions > 0 && len(m.byID) >= m.maxSessions
}

// Create registers a session, or fails with ErrTooManySessions.
func (m *SessionManager) Create(socketID string, comp core.Component, params core.Params, session core.Session) (*LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full() {
		return nil, ErrTooManySessions
	}
	s := NewLiveSession(socketID, comp, params, session)
	m.byID[s.ID] = s
	m.bySocket[socketID] = s
	return s, nil
}

// Full is checked before the websocket upgrade so a full server answers
// with a plain 503.
func (m *SessionManager) Full() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.full()
}

func (m *SessionManager) Get(id string) (*LiveSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	return s, ok
}

func (m *SessionManager) GetBySocket(socketID string) (*LiveSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.bySocket[socketID]
	return s, ok
}

func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[id]; ok {
		delete(m.bySocket, s.SocketID)
		delete(m.byID, id)
	}
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
