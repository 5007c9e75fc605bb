package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manuschillerdev/doklab-site/pkg/js"
)

var (
	ErrSocketClosed = errors.New("socket is closed")
	ErrSendFailed   = errors.New("failed to send message")
)

// DefaultInfoBuffer is the capacity of a socket's mailbox. Each presenter
// posts at most one pending highlight result, so a handful is plenty.
const DefaultInfoBuffer = 16

// Transport is what a socket writes through.
type Transport interface {
	Send(msg Message) error
	Close() error
	IsConnected() bool
}

// Message is an outgoing push.
type Message struct {
	Ref     string         `json:"ref,omitempty"`
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Socket is the server side of one browser connection: pushes to the
// client, a mailbox for background results, and an activity clock used by
// the idle sweep.
type Socket struct {
	id        string
	transport Transport

	open         atomic.Bool
	lastActivity atomic.Int64 // unix nanos

	info      chan any
	done      chan struct{}
	closeOnce sync.Once

	metaMu   sync.Mutex
	metadata map[string]any
}

func NewSocket(id string, transport Transport) *Socket {
	s := &Socket{
		id:        id,
		transport: transport,
		info:      make(chan any, DefaultInfoBuffer),
		done:      make(chan struct{}),
		metadata:  map[string]any{},
	}
	s.open.Store(true)
	s.UpdateActivity()
	return s
}

func (s *Socket) ID() string    { return s.id }
func (s *Socket) Topic() string { return "lv:" + s.id }

func (s *Socket) IsConnected() bool {
	return s.open.Load() && s.transport != nil && s.transport.IsConnected()
}

func (s *Socket) LastActivity() time.Time { return time.Unix(0, s.lastActivity.Load()) }
func (s *Socket) UpdateActivity()         { s.lastActivity.Store(time.Now().UnixNano()) }

// Send writes msg to the client. Sending counts as activity.
func (s *Socket) Send(msg Message) error {
	if !s.IsConnected() {
		return ErrSocketClosed
	}
	s.UpdateActivity()
	if err := s.transport.Send(msg); err != nil {
		if !s.open.Load() {
			return ErrSocketClosed
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Push sends event on the socket's topic.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(Message{Topic: s.Topic(), Event: event, Payload: payload})
}

// Exec pushes client commands. An empty list sends nothing.
func (s *Socket) Exec(cmds js.Commands) error {
	if len(cmds) == 0 {
		return nil
	}
	return s.Push("exec", map[string]any{"commands": cmds})
}

// SendInfo posts msg to the mailbox, waiting while it is full. It reports
// false once the socket is closed, so background work can stop.
func (s *Socket) SendInfo(msg any) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.info <- msg:
		return true
	case <-s.done:
		return false
	}
}

func (s *Socket) Info() <-chan any      { return s.info }
func (s *Socket) Done() <-chan struct{} { return s.done }

func (s *Socket) SetMetadata(key string, value any) {
	s.metaMu.Lock()
	s.metadata[key] = value
	s.metaMu.Unlock()
}

func (s *Socket) GetMetadata(key string) any {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	return s.metadata[key]
}

// Close marks the socket closed, releases blocked SendInfo callers and
// closes the transport. Later calls do nothing.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.open.Store(false)
		close(s.done)
		if s.transport != nil {
			err = s.transport.Close()
		}
	})
	return err
}
