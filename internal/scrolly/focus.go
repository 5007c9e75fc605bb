package scrolly

import (
	"math"
)

// focusPadding is the gap kept above the focus region after scrolling.
const focusPadding = 10

// FocusScroller keeps the focused lines of a panel visible. The first scroll
// jumps; later ones animate.
type FocusScroller struct {
	surface Surface
	panel   string
	first   bool
}

// NewFocusScroller creates a scroller for one panel.
func NewFocusScroller(surface Surface, panel string) *FocusScroller {
	return &FocusScroller{surface: surface, panel: panel, first: true}
}

// Scroll measures the focused line elements and scrolls the panel when any
// part of their union lies outside the visible window. It reports whether a
// scroll was issued. Without focused lines nothing happens and the next scroll
// still counts as the first.
func (f *FocusScroller) Scroll(lineIDs []string) (bool, error) {
	if len(lineIDs) == 0 {
		return false, nil
	}

	state, err := f.surface.Scroll(f.panel)
	if err != nil {
		return false, err
	}

	top, bottom := math.Inf(1), math.Inf(-1)
	for _, id := range lineIDs {
		r, err := f.surface.Measure(id)
		if err != nil {
			return false, err
		}
		top = math.Min(top, r.Top)
		bottom = math.Max(bottom, r.Bottom())
	}

	behavior := ScrollSmooth
	if f.first {
		behavior = ScrollInstant
	}
	f.first = false

	if top >= 0 && bottom <= state.Height {
		return false, nil
	}
	if err := f.surface.ScrollTo(f.panel, state.Top+top-focusPadding, behavior); err != nil {
		return false, err
	}
	return true, nil
}

// Reset makes the next scroll behave like the first.
func (f *FocusScroller) Reset() {
	f.first = true
}
