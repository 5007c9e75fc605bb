// Package core defines live views: server-side components rendered once over
// HTTP and then driven by client events on a websocket.
package core

import (
	"context"
	"io"
)

// Component is a live view. The router calls Mount, then Render after every
// handled event or mailbox message, and Terminate when the socket goes away.
// Calls for one session never overlap.
type Component interface {
	Name() string
	Mount(ctx context.Context, params Params, session Session) error
	Render(ctx context.Context) Renderer

	// HandleEvent applies a client event. A returned error is sent back to
	// the client as an error reply and nothing is rendered.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// HandleInfo applies a message posted with Socket.SendInfo, usually the
	// result of background work the component started.
	HandleInfo(ctx context.Context, msg any) error

	Terminate(ctx context.Context, reason TerminateReason) error
}

// AfterRenderer runs effects once a render has been written to the client,
// such as scrolling to markup that only exists after the diff.
type AfterRenderer interface {
	AfterRender(ctx context.Context) error
}

// Renderer writes HTML.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params holds route parameters and the query string of the page.
type Params map[string]string

// Session holds values the HTTP handler hands to the live session.
type Session map[string]any

// TerminateReason says why a component stopped.
type TerminateReason int

const (
	TerminateNormal TerminateReason = iota
	TerminateShutdown
	TerminateError
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	}
	return "unknown"
}

// BaseComponent gives no-op defaults for the optional callbacks and holds
// the socket the router attaches.
type BaseComponent struct {
	socket *Socket
}

// SetSocket is called by the router before Mount on a live connection.
func (bc *BaseComponent) SetSocket(s *Socket) { bc.socket = s }

// Socket is nil during the HTTP render.
func (bc *BaseComponent) Socket() *Socket { return bc.socket }

func (bc *BaseComponent) Name() string { return "" }

func (bc *BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

func (bc *BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

func (bc *BaseComponent) HandleInfo(ctx context.Context, msg any) error { return nil }

func (bc *BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
