package landing

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuschillerdev/doklab-site/internal/content"
	"github.com/manuschillerdev/doklab-site/internal/scrolly"
	"github.com/manuschillerdev/doklab-site/internal/site"
	"github.com/manuschillerdev/doklab-site/pkg/core"
	"github.com/manuschillerdev/doklab-site/pkg/js"
	"github.com/manuschillerdev/doklab-site/pkg/protocol"
)

type fakeTransport struct {
	mu   sync.Mutex
	msgs []core.Message
}

func (f *fakeTransport) Send(msg core.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeTransport) Close() error      { return nil }
func (f *fakeTransport) IsConnected() bool { return true }

func (f *fakeTransport) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []string
	for _, m := range f.msgs {
		events = append(events, m.Event)
	}
	return events
}

func newPage(t *testing.T) *Page {
	t.Helper()
	bundle, err := content.Load(content.Embedded())
	require.NoError(t, err)

	factory := New(Options{
		Meta:    site.DefaultMeta(),
		Content: func() *content.Bundle { return bundle },
		Now:     func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	return factory().(*Page)
}

func render(t *testing.T, p *Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Render(context.Background()).Render(context.Background(), &buf))
	return buf.String()
}

func TestPage_StaticRender(t *testing.T) {
	p := newPage(t)
	require.NoError(t, p.Mount(context.Background(), core.Params{}, core.Session{}))
	defer p.Terminate(context.Background(), core.TerminateNormal)

	out := render(t, p)
	assert.Contains(t, out, "<title>doklab - Platform features for Docker Compose</title>")
	assert.Contains(t, out, `<script src="/_live/doklab.js" defer></script>`)
	assert.Contains(t, out, "Platform features for Docker Compose</h1>")
	assert.Contains(t, out, `class="scrolly scrolly-tabbed lg-only" id="compose"`)
	assert.Contains(t, out, `class="scrolly scrolly-single" id="config"`)
	assert.Contains(t, out, `id="compose-code-l0"`, "the first step is pre-rendered")
	assert.Contains(t, out, "One config to rule them all")
	assert.Contains(t, out, `id="example-terminal-l0"`)
	assert.Contains(t, out, "© 2026 doklab. All rights reserved.")
	assert.Less(t, bytes.Index([]byte(out), []byte(`id="compose"`)), bytes.Index([]byte(out), []byte(`id="config"`)))
}

func TestPage_Live(t *testing.T) {
	p := newPage(t)
	tr := &fakeTransport{}
	socket := core.NewSocket("s1", tr)
	p.SetSocket(socket)

	ctx := context.Background()
	require.NoError(t, p.Mount(ctx, core.Params{}, core.Session{}))
	defer p.Terminate(ctx, core.TerminateNormal)

	compose := p.Sections()[0].Presenter()
	err := p.HandleEvent(ctx, scrolly.EventIntersect, map[string]any{
		"presenter": ComposeID,
		"viewport":  1000.0,
		"entries": []any{
			map[string]any{"region": compose.RegionID(2), "top": 300.0, "height": 300.0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, scrolly.StateRecomputing, compose.State())

	select {
	case msg := <-socket.Info():
		require.NoError(t, p.HandleInfo(ctx, msg))
	case <-time.After(5 * time.Second):
		t.Fatal("no highlight result posted")
	}
	assert.Equal(t, scrolly.StateDisplaying, compose.State())
	assert.Equal(t, "compose.yaml", compose.ActiveTab())

	out := render(t, p)
	assert.Contains(t, out, `class="scrolly-step is-active" id="compose-step-2"`)

	require.NoError(t, p.AfterRender(ctx))
	assert.Contains(t, tr.events(), "exec")

	require.NoError(t, p.HandleEvent(ctx, scrolly.EventTabSelect, map[string]any{"presenter": ComposeID, "tab": ".env"}))
	assert.Equal(t, ".env", compose.ActiveTab())
}

func TestPage_UnknownPresenter(t *testing.T) {
	p := newPage(t)
	require.NoError(t, p.Mount(context.Background(), core.Params{}, core.Session{}))
	defer p.Terminate(context.Background(), core.TerminateNormal)

	err := p.HandleEvent(context.Background(), scrolly.EventTabSelect, map[string]any{"presenter": "nope", "tab": "x"})
	assert.ErrorIs(t, err, ErrUnknownPresenter)
	assert.ErrorIs(t, err, protocol.ErrBadPayload)

	assert.NoError(t, p.HandleInfo(context.Background(), "noise"))
}

func TestPage_ExecCommandsShape(t *testing.T) {
	p := newPage(t)
	tr := &fakeTransport{}
	p.SetSocket(core.NewSocket("s2", tr))
	require.NoError(t, p.Mount(context.Background(), core.Params{}, core.Session{}))
	defer p.Terminate(context.Background(), core.TerminateNormal)

	// Step 0 is pre-rendered, so the first intersection needs no highlight.
	config := p.Sections()[1].Presenter()
	require.NoError(t, p.HandleEvent(context.Background(), scrolly.EventIntersect, map[string]any{
		"presenter": ConfigID,
		"viewport":  1000.0,
		"entries":   []any{map[string]any{"region": config.RegionID(0), "top": 300.0, "height": 300.0}},
	}))
	require.NoError(t, p.AfterRender(context.Background()))

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.NotEmpty(t, tr.msgs)
	cmds, ok := tr.msgs[len(tr.msgs)-1].Payload["commands"].(js.Commands)
	require.True(t, ok)
	var ops []string
	for _, c := range cmds {
		ops = append(ops, c.Op)
	}
	assert.Contains(t, ops, "add_class")
}
