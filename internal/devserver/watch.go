package devserver

import (
	"context"
	"io"

	"github.com/manuschillerdev/doklab-site/pkg/core"
)

// SocketPath is the live route pages without their own live view join to
// receive reload events.
const SocketPath = "/_live/socket"

// Watch is a live view with no markup. Its only purpose is to hold a socket
// open so Broadcast reaches pages like the docs.
type Watch struct {
	core.BaseComponent
}

// NewWatch is the factory registered at SocketPath.
func NewWatch() core.Component {
	return &Watch{}
}

func (w *Watch) Name() string { return "watch" }

func (w *Watch) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, out io.Writer) error {
		_, err := io.WriteString(out, `<div data-live-view="watch"></div>`)
		return err
	})
}
