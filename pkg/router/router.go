// Package router provides HTTP routing for live views.
package router

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/manuschillerdev/doklab-site/pkg/core"
	"github.com/manuschillerdev/doklab-site/pkg/limits"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
	"github.com/manuschillerdev/doklab-site/pkg/metrics"
	"github.com/manuschillerdev/doklab-site/pkg/pool"
	"github.com/manuschillerdev/doklab-site/pkg/protocol"
	"github.com/manuschillerdev/doklab-site/pkg/transport"
)

// Common router errors.
var (
	ErrNotJoined       = errors.New("channel not joined")
	ErrComponentPanic  = errors.New("component panicked")
	ErrTooManySessions = errors.New("too many live sessions")
	ErrTooManyPerIP    = errors.New("too many live sessions from this address")
)

// Router handles HTTP routing and live connections.
type Router struct {
	mux          chi.Router
	liveRoutes   map[string]*LiveRoute
	errorHandler ErrorHandler

	sessions *SessionManager
	sockets  *core.SocketManager
	codecs   *protocol.CodecRegistry
	perIP    *limits.ConnectionLimiter
	metrics  *metrics.Metrics

	transportConfig *transport.Config
	wsConfig        *transport.WebSocketConfig
	logger          logging.Logger

	// loops tracks running message loops so shutdown can wait for them.
	loops sync.WaitGroup

	mu sync.RWMutex
}

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	// Path is the URL path pattern.
	Path string

	// Component is the factory function for creating the component.
	Component func() core.Component

	// Meta contains route metadata.
	Meta map[string]any
}

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during request processing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithWebSocketConfig sets the websocket origin policy.
func WithWebSocketConfig(c *transport.WebSocketConfig) Option {
	return func(r *Router) { r.wsConfig = c }
}

// WithMaxSessions caps concurrent live sessions. Zero means no limit.
func WithMaxSessions(n int) Option {
	return func(r *Router) { r.sessions = NewSessionManager(n) }
}

// WithMaxSessionsPerIP caps concurrent live sessions per client address.
// Zero means no limit.
func WithMaxSessionsPerIP(n int) Option {
	return func(r *Router) { r.perIP = limits.NewConnectionLimiter(n) }
}

// WithMetrics sets where live session, event and render metrics go.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:             chi.NewRouter(),
		liveRoutes:      make(map[string]*LiveRoute),
		sessions:        NewSessionManager(0),
		sockets:         core.NewSocketManager(),
		codecs:          protocol.NewCodecRegistry(nil),
		perIP:           limits.NewConnectionLimiter(0),
		metrics:         metrics.New(metrics.DefaultNamespace),
		transportConfig: transport.DefaultConfig(),
		wsConfig:        transport.DefaultWebSocketConfig(),
		logger:          logging.NopLogger{},
	}
	r.errorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		r.logger.Error("request failed", logging.String("path", req.URL.Path), logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. It must be called before routes are
// registered.
func (r *Router) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(m)
	}
}

// SetErrorHandler sets the error handler.
func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.errorHandler = handler
}

// SetNotFoundHandler sets the 404 handler.
func (r *Router) SetNotFoundHandler(handler http.Handler) {
	r.mux.NotFound(handler.ServeHTTP)
}

// Sessions returns the live session manager.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Metrics returns the router's metrics.
func (r *Router) Metrics() *metrics.Metrics {
	return r.metrics
}

// SocketManager returns the socket manager.
func (r *Router) SocketManager() *core.SocketManager {
	return r.sockets
}

// Live registers a live route. GET requests render the component; websocket
// upgrades on the same path attach a live session.
func (r *Router) Live(path string, component func() core.Component, opts ...RouteOption) {
	route := &LiveRoute{
		Path:      path,
		Component: component,
		Meta:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(route)
	}

	r.mu.Lock()
	r.liveRoutes[path] = route
	r.mu.Unlock()

	r.mux.Get(path, r.handleLive(route))
}

// Route returns the live route registered at path.
func (r *Router) Route(path string) (*LiveRoute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.liveRoutes[path]
	return route, ok
}

// Handle registers a standard HTTP handler.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// Get registers a GET handler.
func (r *Router) Get(pattern string, handler http.HandlerFunc) {
	r.mux.Get(pattern, handler)
}

// Group creates a route group with its own middleware stack.
func (r *Router) Group(fn func(chi.Router)) {
	r.mux.Group(fn)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handleLive(route *LiveRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		component := route.Component()
		if isWebSocketRequest(req) {
			r.handleWebSocket(w, req, component)
			return
		}
		r.renderLive(w, req, component)
	}
}

// renderLive renders the initial HTML of a live component.
func (r *Router) renderLive(w http.ResponseWriter, req *http.Request, component core.Component) {
	ctx := req.Context()
	params := extractParams(req)
	session := r.extractSession(req)
	ctx = core.WithConn(ctx, core.Conn{Session: session, Params: params})

	err := safeCall(func() error { return component.Mount(ctx, params, session) })
	if err != nil {
		r.errorHandler(w, req, err)
		return
	}
	defer func() {
		_ = safeCall(func() error { return component.Terminate(ctx, core.TerminateNormal) })
	}()

	renderer := component.Render(ctx)
	if renderer == nil {
		r.errorHandler(w, req, ErrNilRenderer)
		return
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := renderer.Render(ctx, buf); err != nil {
		r.errorHandler(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleWebSocket upgrades the request and starts the live session.
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, component core.Component) {
	codec, err := r.codecs.Lookup(req.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.sessions.Full() {
		r.metrics.SessionsRejected.Inc("capacity")
		http.Error(w, ErrTooManySessions.Error(), http.StatusServiceUnavailable)
		return
	}

	ip := clientIP(req)
	if !r.perIP.Acquire(ip) {
		r.metrics.SessionsRejected.Inc("per_ip")
		r.logger.Warn("live session refused", logging.String("remote_ip", ip), logging.Err(ErrTooManyPerIP))
		http.Error(w, ErrTooManyPerIP.Error(), http.StatusTooManyRequests)
		return
	}

	ws := transport.NewWebSocket(r.transportConfig, r.wsConfig, codec, r.logger)
	if err := ws.Upgrade(w, req); err != nil {
		// Upgrade has already written the response.
		r.perIP.Release(ip)
		if errors.Is(err, transport.ErrOriginNotAllowed) {
			r.metrics.SessionsRejected.Inc("origin")
		} else {
			r.metrics.SessionsRejected.Inc("upgrade")
		}
		r.logger.Warn("websocket upgrade failed",
			logging.String("origin", req.Header.Get("Origin")),
			logging.Err(err))
		return
	}

	socketID := uuid.NewString()
	socket := core.NewSocket(socketID, socketTransport{ws})
	socket.SetMetadata("remote_ip", ip)
	socket.SetMetadata("user_agent", req.UserAgent())

	if sc, ok := component.(interface{ SetSocket(*core.Socket) }); ok {
		sc.SetSocket(socket)
	}

	session, err := r.sessions.Create(socketID, component, extractParams(req), r.extractSession(req))
	if err != nil {
		r.perIP.Release(ip)
		r.metrics.SessionsRejected.Inc("capacity")
		_ = ws.Close()
		return
	}
	session.Transport = ws
	session.Socket = socket
	session.RemoteIP = ip

	if err := r.sockets.Add(socket); err != nil {
		r.sessions.Remove(session.ID)
		r.perIP.Release(ip)
		_ = ws.Close()
		return
	}
	r.metrics.SessionsTotal.Inc()
	r.metrics.LiveSessions.Inc()

	// The connection outlives the HTTP request, so it gets its own context.
	ctx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel
	log := r.logger.With(logging.String("socket", socketID), logging.String("codec", codec.Name()))
	ctx = logging.ContextWithLogger(ctx, log)
	ctx = core.WithConn(ctx, core.Conn{Socket: socket, Session: session.Session, Params: session.Params})

	log.Debug("live session started", logging.String("path", req.URL.Path))

	r.loops.Add(1)
	go func() {
		defer r.loops.Done()
		r.messageLoop(ctx, session)
	}()
}

// messageLoop serializes client events, mailbox messages and rendering for
// one session.
func (r *Router) messageLoop(ctx context.Context, session *LiveSession) {
	reason := core.TerminateNormal
	defer func() { r.handleDisconnect(session, reason) }()

	log := logging.L(ctx)
	recvCh := session.Transport.Receive()
	closeCh := session.Transport.CloseChan()
	info := session.Socket.Info()

	for {
		select {
		case msg := <-recvCh:
			session.Socket.UpdateActivity()

			switch msg.Type {
			case protocol.MsgHeartbeat:
				r.sendReply(session, msg.Ref, msg.Topic, nil)

			case protocol.MsgJoin:
				r.handleJoin(ctx, session, msg)

			case protocol.MsgLeave:
				r.sendReply(session, msg.Ref, msg.Topic, nil)
				return

			default:
				if !session.IsMounted() {
					r.sendError(session, msg.Ref, msg.Topic, ErrNotJoined)
					continue
				}
				r.metrics.Events.Inc(msg.Event)
				if err := r.dispatchEvent(ctx, session, msg); err != nil {
					r.metrics.EventErrors.Inc(msg.Event)
					r.countPanic(err)
					log.Debug("event rejected", logging.String("event", msg.Event), logging.Err(err))
					r.sendError(session, msg.Ref, msg.Topic, err)
					continue
				}
				r.renderAndSendDiff(ctx, session)
				r.afterRender(ctx, session)
			}

		case m := <-info:
			if !session.IsMounted() {
				continue
			}
			if err := safeCall(func() error { return session.Component.HandleInfo(ctx, m) }); err != nil {
				log.Error("handle info", logging.Err(err))
				if r.countPanic(err) {
					reason = core.TerminateError
					return
				}
				continue
			}
			r.renderAndSendDiff(ctx, session)
			r.afterRender(ctx, session)

		case <-closeCh:
			select {
			case <-session.Socket.Done():
				reason = core.TerminateShutdown
			default:
			}
			return

		case <-session.Socket.Done():
			reason = core.TerminateShutdown
			return

		case <-ctx.Done():
			reason = core.TerminateShutdown
			return
		}
	}
}

// handleJoin mounts the component and replies with the initial render.
func (r *Router) handleJoin(ctx context.Context, session *LiveSession, msg *protocol.Message) {
	session.SetJoinRef(msg.JoinRef)
	if msg.Topic != "" {
		session.Topic = msg.Topic
	}

	if params, ok := msg.Payload["params"].(map[string]any); ok {
		for k, v := range params {
			if s, ok := v.(string); ok {
				session.Params[k] = s
			}
		}
	}

	if !session.IsMounted() {
		err := safeCall(func() error { return session.Component.Mount(ctx, session.Params, session.Session) })
		if err != nil {
			r.sendError(session, msg.Ref, msg.Topic, err)
			return
		}
		session.SetMounted(true)
	}

	html, err := r.render(ctx, session)
	if err != nil {
		r.sendError(session, msg.Ref, msg.Topic, err)
		return
	}

	// The client now holds these slots; later diffs are relative to them.
	text, htmlSlots := extractSlots(html)
	session.SetSlotHashes(hashSlots(text, htmlSlots))

	r.sendReply(session, msg.Ref, msg.Topic, map[string]any{
		"rendered": map[string]any{
			"s": []string{html},
		},
	})
	r.afterRender(ctx, session)
}

// dispatchEvent hands a client event to the component.
func (r *Router) dispatchEvent(ctx context.Context, session *LiveSession, msg *protocol.Message) error {
	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]any)
	}
	return safeCall(func() error { return session.Component.HandleEvent(ctx, msg.Event, payload) })
}

func (r *Router) render(ctx context.Context, session *LiveSession) (string, error) {
	defer r.metrics.RenderDuration.Since(time.Now())

	renderer := session.Component.Render(ctx)
	if renderer == nil {
		return "", ErrNilRenderer
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := safeCall(func() error { return renderer.Render(ctx, buf) }); err != nil {
		r.countPanic(err)
		return "", err
	}
	return buf.String(), nil
}

// renderAndSendDiff renders the component and sends the slots that changed.
func (r *Router) renderAndSendDiff(ctx context.Context, session *LiveSession) {
	html, err := r.render(ctx, session)
	if err != nil {
		logging.L(ctx).Error("render", logging.Err(err))
		return
	}

	payload := r.buildDiffPayload(session, html)
	if payload.IsEmpty() {
		return
	}
	r.metrics.DiffSize.Observe(float64(payload.Size()))
	if err := session.Socket.SendDiff(payload); err != nil {
		logging.L(ctx).Debug("send diff", logging.Int("bytes", payload.Size()), logging.Err(err))
	}
}

// afterRender runs component effects once the client has the new markup.
func (r *Router) afterRender(ctx context.Context, session *LiveSession) {
	ar, ok := session.Component.(core.AfterRenderer)
	if !ok {
		return
	}
	if err := safeCall(func() error { return ar.AfterRender(ctx) }); err != nil {
		logging.L(ctx).Warn("after render", logging.Err(err))
	}
}

// buildDiffPayload compares slot hashes with the previous render.
func (r *Router) buildDiffPayload(session *LiveSession, html string) *core.DiffPayload {
	payload := &core.DiffPayload{
		Version:   session.NextVersion(),
		Slots:     make(map[string]string),
		HTMLSlots: make(map[string]string),
	}

	textSlots, htmlSlots := extractSlots(html)
	if len(textSlots) == 0 && len(htmlSlots) == 0 {
		payload.Full = html
		return payload
	}

	prev := session.GetSlotHashes()
	next := hashSlots(textSlots, htmlSlots)

	for id, content := range textSlots {
		if prev == nil || prev[id] != next[id] {
			payload.Slots[id] = content
		}
	}
	for id, content := range htmlSlots {
		if prev == nil || prev[id] != next[id] {
			payload.HTMLSlots[id] = content
		}
	}

	session.SetSlotHashes(next)
	return payload
}

func hashSlots(textSlots, htmlSlots map[string]string) map[string]uint64 {
	hashes := make(map[string]uint64, len(textSlots)+len(htmlSlots))
	for id, content := range textSlots {
		hashes[id] = hashSlotContent(content)
	}
	for id, content := range htmlSlots {
		hashes[id] = hashSlotContent(content)
	}
	return hashes
}

// extractSlots extracts data-slot content in a single pass. Slots whose
// content contains markup are returned as HTML slots.
func extractSlots(html string) (textSlots, htmlSlots map[string]string) {
	textSlots = make(map[string]string)
	htmlSlots = make(map[string]string)

	const marker = `data-slot="`
	htmlLen := len(html)
	pos := 0

	for pos < htmlLen {
		idx := strings.Index(html[pos:], marker)
		if idx == -1 {
			break
		}

		slotStart := pos + idx + len(marker)
		slotEnd := strings.IndexByte(html[slotStart:], '"')
		if slotEnd == -1 {
			pos = slotStart
			continue
		}
		slotID := html[slotStart : slotStart+slotEnd]

		tagStart := pos + idx
		for tagStart > 0 && html[tagStart] != '<' {
			tagStart--
		}
		tagNameEnd := tagStart + 1
		for tagNameEnd < htmlLen && !strings.ContainsRune(" \t\n/>", rune(html[tagNameEnd])) {
			tagNameEnd++
		}
		tagName := html[tagStart+1 : tagNameEnd]

		closeAngle := strings.IndexByte(html[slotStart+slotEnd:], '>')
		if closeAngle == -1 {
			pos = slotStart + slotEnd
			continue
		}
		contentStart := slotStart + slotEnd + closeAngle + 1

		contentEnd, next := matchClose(html, tagName, contentStart)
		if contentEnd != -1 {
			content := strings.TrimSpace(html[contentStart:contentEnd])
			if strings.ContainsAny(content, "<>") {
				htmlSlots[slotID] = content
			} else {
				textSlots[slotID] = content
			}
		}
		pos = next
	}

	return textSlots, htmlSlots
}

// matchClose finds the close tag matching an element opened before from. It
// returns the content end (or -1) and the position to resume scanning at.
func matchClose(html, tagName string, from int) (int, int) {
	openTag := "<" + tagName
	closeTag := "</" + tagName
	depth := 1
	pos := from

	for depth > 0 && pos < len(html) {
		nextClose := strings.Index(html[pos:], closeTag)
		if nextClose == -1 {
			return -1, len(html)
		}
		nextClose += pos

		nextOpen := strings.Index(html[pos:], openTag)
		if nextOpen != -1 {
			nextOpen += pos
		} else {
			nextOpen = len(html)
		}

		if nextOpen < nextClose {
			after := nextOpen + len(openTag)
			if after < len(html) && strings.ContainsRune(" \t\n/>", rune(html[after])) {
				depth++
			}
			pos = after
			continue
		}

		depth--
		if depth == 0 {
			return nextClose, nextClose + len(closeTag)
		}
		pos = nextClose + len(closeTag)
	}
	return -1, pos
}

func hashSlotContent(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

// handleDisconnect terminates the component and releases the session. It
// runs once per session.
func (r *Router) handleDisconnect(session *LiveSession, reason core.TerminateReason) {
	session.closeOnce.Do(func() {
		r.sessions.Remove(session.ID)
		r.sockets.Remove(session.SocketID)
		r.perIP.Release(session.RemoteIP)
		r.metrics.LiveSessions.Dec()

		if session.cancel != nil {
			session.cancel()
		}
		// Closing the socket first releases background work blocked on the
		// mailbox.
		if session.Socket != nil {
			_ = session.Socket.Close()
		}
		if session.Transport != nil {
			_ = session.Transport.Close()
		}

		ctx := context.Background()
		if err := safeCall(func() error { return session.Component.Terminate(ctx, reason) }); err != nil {
			r.logger.Warn("terminate", logging.String("socket", session.SocketID), logging.Err(err))
		}

		fields := []logging.Field{
			logging.String("socket", session.SocketID),
			logging.String("reason", reason.String()),
			logging.Duration("age", time.Since(session.CreatedAt)),
		}
		if session.Socket != nil {
			fields = append(fields, logging.Any("remote_ip", session.Socket.GetMetadata("remote_ip")))
		}
		r.logger.Debug("live session ended", fields...)
	})
}

// Sweep closes live sessions idle for longer than maxIdle.
func (r *Router) Sweep(maxIdle time.Duration) int {
	return r.sockets.CleanupInactive(maxIdle)
}

// Shutdown closes every live socket and waits for the message loops to exit.
func (r *Router) Shutdown(ctx context.Context) error {
	if err := r.sockets.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		r.loops.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) sendReply(session *LiveSession, ref, topic string, response map[string]any) {
	if response == nil {
		response = map[string]any{}
	}
	msg := protocol.OkReply(ref, topic, response)
	msg.JoinRef = session.GetJoinRef()
	if err := session.Transport.Send(msg); err != nil {
		r.logger.Debug("send reply", logging.String("socket", session.SocketID), logging.Err(err))
	}
}

func (r *Router) sendError(session *LiveSession, ref, topic string, err error) {
	msg := protocol.ErrorReply(ref, topic, err.Error())
	msg.JoinRef = session.GetJoinRef()
	_ = session.Transport.Send(msg)
}

// countPanic records err if it came from a recovered panic.
func (r *Router) countPanic(err error) bool {
	if !errors.Is(err, ErrComponentPanic) {
		return false
	}
	r.metrics.Panics.Inc()
	return true
}

// safeCall runs fn and converts a panic into ErrComponentPanic.
func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrComponentPanic, rec)
		}
	}()
	return fn()
}

// extractSession collects per-connection data from the request.
func (r *Router) extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	if id := middleware.GetReqID(req.Context()); id != "" {
		session["request_id"] = id
	}
	for _, cookie := range req.Cookies() {
		session["cookie:"+cookie.Name] = cookie.Value
	}
	return session
}

// extractParams collects route parameters and query strings.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)

	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == "*" {
				continue
			}
			params[key] = rctx.URLParams.Values[i]
		}
	}

	return params
}

// isWebSocketRequest checks if this is a WebSocket upgrade request.
func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}

// RouteOption configures a LiveRoute.
type RouteOption func(*LiveRoute)

// WithMeta adds metadata to the route.
func WithMeta(key string, value any) RouteOption {
	return func(r *LiveRoute) {
		r.Meta[key] = value
	}
}
