package core

import "context"

// Conn describes the live connection a component runs under. Socket is nil
// while the page is rendered over plain HTTP.
type Conn struct {
	Socket  *Socket
	Session Session
	Params  Params
}

type connKey struct{}

// WithConn returns a context carrying c.
func WithConn(ctx context.Context, c Conn) context.Context {
	return context.WithValue(ctx, connKey{}, c)
}

// ConnFrom returns the connection stored by WithConn.
func ConnFrom(ctx context.Context) (Conn, bool) {
	c, ok := ctx.Value(connKey{}).(Conn)
	return c, ok
}

// Live reports whether ctx belongs to a websocket session.
func Live(ctx context.Context) bool {
	c, ok := ConnFrom(ctx)
	return ok && c.Socket != nil
}
