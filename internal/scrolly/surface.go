package scrolly

import (
	"errors"
	"time"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
)

// ErrUnknownElement is returned by a Surface asked about an element it does not
// know.
var ErrUnknownElement = errors.New("unknown element")

// Rect is an element's box relative to the top of its scroll panel viewport.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// ScrollBehavior selects how a panel scrolls.
type ScrollBehavior string

const (
	ScrollInstant ScrollBehavior = "instant"
	ScrollSmooth  ScrollBehavior = "smooth"
)

// Keyframe is one frame of a web animation, keyed by CSS property.
type Keyframe map[string]any

// Timing configures an animation.
type Timing struct {
	Duration time.Duration
	Delay    time.Duration
	Easing   string
}

// ScrollState is a panel's scroll position and visible height.
type ScrollState struct {
	Top    float64
	Height float64
}

// Surface is the rendering capability the presenter drives. It hides the
// platform that actually lays out and animates elements.
type Surface interface {
	Measure(id string) (Rect, error)
	Animate(id string, keyframes []Keyframe, timing Timing) error
	Scroll(panel string) (ScrollState, error)
	ScrollTo(panel string, top float64, behavior ScrollBehavior) error
}

// LayoutSyncer is implemented by surfaces that must be told when the displayed
// code of a panel changes. Browser-backed surfaces learn this from the DOM.
type LayoutSyncer interface {
	SyncLayout(panel, prefix string, code *highlight.Code)
}

// NopSurface ignores every command. Measurements fail.
type NopSurface struct{}

func (NopSurface) Measure(string) (Rect, error)                   { return Rect{}, ErrUnknownElement }
func (NopSurface) Animate(string, []Keyframe, Timing) error       { return nil }
func (NopSurface) Scroll(string) (ScrollState, error)             { return ScrollState{}, ErrUnknownElement }
func (NopSurface) ScrollTo(string, float64, ScrollBehavior) error { return nil }
