// Package transport carries protocol messages between a browser and a live
// session. The websocket implementation is the only one; the interface exists
// so the router can be tested without a network.
package transport

import (
	"errors"
	"time"

	"github.com/manuschillerdev/doklab-site/pkg/protocol"
)

var (
	ErrNotConnected     = errors.New("transport not connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendTimeout      = errors.New("send timeout")
	ErrOriginNotAllowed = errors.New("origin not allowed")
)

// Transport is one client connection.
type Transport interface {
	// Send queues msg. It fails fast once the connection is gone and times
	// out when the client stops reading.
	Send(msg *protocol.Message) error

	// Receive yields decoded client messages in arrival order.
	Receive() <-chan *protocol.Message

	// CloseChan is closed when the connection ends for any reason.
	CloseChan() <-chan struct{}

	Close() error
	IsConnected() bool
}

// Config tunes a connection.
type Config struct {
	// ReadTimeout bounds the wait for the next client frame. The client
	// heartbeats every 15s, so three missed beats end the session.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration

	// MaxMessageSize caps a client frame. Scroll reports are small; a
	// viewport with every region of both walkthroughs stays under 8KB.
	MaxMessageSize int64

	SendQueue    int
	ReceiveQueue int
}

// DefaultConfig returns the settings used by the site.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:    45 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 << 10,
		SendQueue:      128,
		ReceiveQueue:   64,
	}
}
