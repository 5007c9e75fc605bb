package scrolly

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/pkg/protocol"
)

func newTestSection(t *testing.T) (*Section, *recordingSink, *inbox) {
	t.Helper()
	sink := &recordingSink{}
	s := NewSection(SectionConfig{
		ID:          "compose",
		Catalog:     demoCatalog(t),
		Highlighter: highlight.NewChroma(),
		Presenter:   DefaultConfig(),
		Layout:      DefaultLayout(),
	}, sink.send)

	box := newInbox()
	require.NoError(t, s.Mount(context.Background(), box.post))
	t.Cleanup(func() {
		s.Terminate()
		s.Presenter().Wait()
	})
	return s, sink, box
}

func intersectPayload(s *Section, step int) map[string]any {
	return map[string]any{
		"presenter": s.ID(),
		"viewport":  1000.0,
		"entries": []any{
			map[string]any{"region": s.Presenter().RegionID(step), "top": 300.0, "height": 300.0},
		},
	}
}

func TestSection_Intersect(t *testing.T) {
	s, sink, box := newTestSection(t)

	changed, err := s.HandleEvent(EventIntersect, intersectPayload(s, 1))
	require.NoError(t, err)
	assert.True(t, changed)

	res := box.next(t)
	assert.False(t, s.HandleResult(HighlightResult{Presenter: "other", Generation: res.Generation}))
	assert.True(t, s.HandleResult(res))

	require.NoError(t, s.AfterRender())
	ops := sink.ops()
	assert.Contains(t, ops, "remove_class")
	assert.Contains(t, ops, "add_class")
	assert.Contains(t, ops, "set_attr")

	// The active step is marked once.
	n := len(sink.batches)
	require.NoError(t, s.AfterRender())
	assert.Len(t, sink.batches, n)
}

func TestSection_TabSelect(t *testing.T) {
	s, _, box := newTestSection(t)
	_, err := s.HandleEvent(EventIntersect, intersectPayload(s, 1))
	require.NoError(t, err)
	s.HandleResult(box.next(t))

	changed, err := s.HandleEvent(EventTabSelect, map[string]any{"presenter": "compose", "tab": ".env"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, ".env", s.Presenter().ActiveTab())

	changed, err = s.HandleEvent(EventTabSelect, map[string]any{"presenter": "compose", "tab": "nope"})
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.HandleEvent(EventTabSelect, map[string]any{"presenter": "compose"})
	assert.ErrorIs(t, err, protocol.ErrBadPayload)
}

func TestSection_PanelScroll(t *testing.T) {
	s, _, _ := newTestSection(t)

	changed, err := s.HandleEvent(EventPanelScroll, map[string]any{"presenter": "compose", "scrollTop": 120.0, "height": 480.0})
	require.NoError(t, err)
	assert.False(t, changed)

	state, err := s.Surface().Scroll(s.Presenter().PanelID())
	require.NoError(t, err)
	assert.Equal(t, ScrollState{Top: 120, Height: 480}, state)
}

func TestSection_PanelScrollAfterServerScroll(t *testing.T) {
	s, sink, box := newTestSection(t)
	panel := s.Presenter().PanelID()

	_, err := s.HandleEvent(EventIntersect, intersectPayload(s, 2))
	require.NoError(t, err)
	require.True(t, s.HandleResult(box.next(t)))
	require.NoError(t, s.AfterRender())
	require.Contains(t, sink.ops(), "scroll")

	target, err := s.Surface().Scroll(panel)
	require.NoError(t, err)
	require.Greater(t, target.Top, 0.0)

	scroll := func(top float64) {
		_, err := s.HandleEvent(EventPanelScroll, map[string]any{"presenter": "compose", "scrollTop": top, "height": 600.0})
		require.NoError(t, err)
	}

	// The client reports mid-animation, then where the panel came to rest.
	scroll(300)
	scroll(target.Top)

	state, err := s.Surface().Scroll(panel)
	require.NoError(t, err)
	assert.Equal(t, target.Top, state.Top)

	r, err := s.Surface().Measure(highlight.LineID(s.Presenter().CodePrefix(), 40))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Top, 0.0)
	assert.LessOrEqual(t, r.Bottom(), state.Height)
}

func TestSection_BadEvents(t *testing.T) {
	s, _, _ := newTestSection(t)

	_, err := s.HandleEvent(EventIntersect, map[string]any{"viewport": "tall"})
	assert.ErrorIs(t, err, protocol.ErrBadPayload)

	_, err = s.HandleEvent("step:jump", nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestSection_Render(t *testing.T) {
	s, _, _ := newTestSection(t)

	var sb strings.Builder
	s.Render(&sb)
	assert.Contains(t, sb.String(), `data-presenter="compose"`)
	assert.Contains(t, sb.String(), `data-slot="compose-code-view"`)
}

func TestSection_StaticMount(t *testing.T) {
	s := NewSection(SectionConfig{
		ID:          "config",
		Catalog:     demoCatalog(t),
		Highlighter: highlight.NewChroma(),
		Presenter:   DefaultConfig(),
		Layout:      DefaultLayout(),
		Options:     SectionOptions{Variant: VariantSingle},
	}, nil)
	require.NoError(t, s.Mount(context.Background(), nil))
	defer s.Terminate()

	_, err := s.HandleEvent(EventIntersect, intersectPayload(s, 2))
	require.NoError(t, err)
	s.Presenter().Wait()
	assert.Equal(t, StateRecomputing, s.Presenter().State(), "results have nowhere to go")
	assert.NoError(t, s.AfterRender())
}
