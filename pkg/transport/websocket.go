package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/manuschillerdev/doklab-site/pkg/logging"
	"github.com/manuschillerdev/doklab-site/pkg/protocol"
)

// WebSocket is a Transport over a server-side websocket. Reading, writing
// and pinging run as one group: the first to fail ends the connection.
type WebSocket struct {
	cfg     *Config
	origins *WebSocketConfig
	codec   protocol.Codec
	logger  logging.Logger

	in   chan *protocol.Message
	out  chan *protocol.Message
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
	closeOnce sync.Once
}

// NewWebSocket returns an unconnected transport. Nil arguments select the
// defaults: DefaultConfig, same-origin only, JSON and no logging.
func NewWebSocket(cfg *Config, origins *WebSocketConfig, codec protocol.Codec, logger logging.Logger) *WebSocket {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if origins == nil {
		origins = DefaultWebSocketConfig()
	}
	if codec == nil {
		codec = protocol.NewJSONCodec()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		cfg:     cfg,
		origins: origins,
		codec:   codec,
		logger:  logger,
		in:      make(chan *protocol.Message, cfg.ReceiveQueue),
		out:     make(chan *protocol.Message, cfg.SendQueue),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (t *WebSocket) Codec() protocol.Codec { return t.codec }

// Upgrade checks the origin, accepts the websocket and starts the
// connection. On failure the response has already been written.
func (t *WebSocket) Upgrade(w http.ResponseWriter, r *http.Request) error {
	if !t.origins.Allows(r.Header.Get("Origin"), r.Host) {
		http.Error(w, "Forbidden: origin not allowed", http.StatusForbidden)
		return ErrOriginNotAllowed
	}

	// The origin was checked above against the configured list.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}
	conn.SetReadLimit(t.cfg.MaxMessageSize)

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	t.connected.Store(true)

	go t.run(conn)
	return nil
}

func (t *WebSocket) run(conn *websocket.Conn) {
	g, ctx := errgroup.WithContext(t.ctx)
	g.Go(func() error { return t.readLoop(ctx, conn) })
	g.Go(func() error { return t.writeLoop(ctx, conn) })
	g.Go(func() error { return t.pingLoop(ctx, conn) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) &&
		websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
		websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.logger.Debug("websocket ended", logging.Err(err))
	}
	_ = t.Close()
}

func (t *WebSocket) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		rctx, cancel := context.WithTimeout(ctx, t.cfg.ReadTimeout)
		_, data, err := conn.Read(rctx)
		cancel()
		if err != nil {
			return err
		}

		msg, err := t.codec.Decode(data)
		if err != nil {
			t.logger.Debug("dropping undecodable frame", logging.Int("bytes", len(data)), logging.Err(err))
			continue
		}

		select {
		case t.in <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Scroll reports supersede each other, so dropping one under
			// load is harmless.
			t.logger.Warn("receive queue full, dropping message", logging.String("event", msg.Event))
		}
	}
}

func (t *WebSocket) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	typ := websocket.MessageText
	if t.codec.Binary() {
		typ = websocket.MessageBinary
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-t.out:
			data, err := t.codec.Encode(msg)
			if err != nil {
				t.logger.Error("encode message", logging.String("event", msg.Event), logging.Err(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, t.cfg.WriteTimeout)
			err = conn.Write(wctx, typ, data)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (t *WebSocket) pingLoop(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, t.cfg.WriteTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

// Send implements Transport.
func (t *WebSocket) Send(msg *protocol.Message) error {
	if !t.connected.Load() {
		return ErrNotConnected
	}
	timer := time.NewTimer(t.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case t.out <- msg:
		return nil
	case <-t.done:
		return ErrConnectionClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

func (t *WebSocket) Receive() <-chan *protocol.Message { return t.in }

func (t *WebSocket) CloseChan() <-chan struct{} { return t.done }

func (t *WebSocket) IsConnected() bool { return t.connected.Load() }

// Close ends the connection. It is safe to call more than once.
func (t *WebSocket) Close() error {
	t.closeOnce.Do(func() {
		t.connected.Store(false)
		t.cancel()
		close(t.done)

		t.mu.Lock()
		conn := t.conn
		t.conn = nil
		t.mu.Unlock()
		// The read side may already have torn the connection down.
		if conn != nil {
			if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
				t.logger.Debug("websocket close", logging.Err(err))
			}
		}
	})
	return nil
}
