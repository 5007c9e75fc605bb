// Package js provides client-side commands pushed to the browser. Commands
// encode as [op, args] pairs and run without another server roundtrip.
package js

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Command is a single client operation.
type Command struct {
	Op   string
	Args map[string]any
}

// MarshalJSON encodes the command as [op, args].
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Op, c.Args})
}

// EncodeMsgpack encodes the command as [op, args] for binary clients.
func (c Command) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode([]any{c.Op, c.Args})
}

// String returns the JSON encoding.
func (c Command) String() string {
	b, err := c.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

// Commands holds a sequence of commands.
type Commands []Command

// String implements fmt.Stringer.
func (cs Commands) String() string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.String())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// JS is the namespace for commands.
var JS = jsNamespace{}

type jsNamespace struct{}

// ScrollTo scrolls a scroll container to an absolute offset.
func (jsNamespace) ScrollTo(selector string, top float64, behavior string) Command {
	return Command{Op: "scroll", Args: map[string]any{
		"to":       selector,
		"top":      top,
		"behavior": behavior,
	}}
}

// Animate runs a web animation on an element.
func (jsNamespace) Animate(selector string, keyframes any, opts ...AnimateOption) Command {
	config := animateConfig{
		duration: 300,
		easing:   "ease",
		fill:     "both",
	}
	for _, opt := range opts {
		opt(&config)
	}

	return Command{Op: "animate", Args: map[string]any{
		"to":        selector,
		"keyframes": keyframes,
		"duration":  config.duration,
		"delay":     config.delay,
		"easing":    config.easing,
		"fill":      config.fill,
	}}
}

// AddClass adds CSS class(es) to an element.
func (jsNamespace) AddClass(selector, class string) Command {
	return Command{Op: "add_class", Args: map[string]any{"to": selector, "names": class}}
}

// RemoveClass removes CSS class(es) from an element.
func (jsNamespace) RemoveClass(selector, class string) Command {
	return Command{Op: "remove_class", Args: map[string]any{"to": selector, "names": class}}
}

// SetAttr sets an attribute on an element.
func (jsNamespace) SetAttr(selector, attr, value string) Command {
	return Command{Op: "set_attr", Args: map[string]any{"to": selector, "attr": []string{attr, value}}}
}

// RemoveAttr removes an attribute from an element.
func (jsNamespace) RemoveAttr(selector, attr string) Command {
	return Command{Op: "remove_attr", Args: map[string]any{"to": selector, "attr": attr}}
}

type animateConfig struct {
	duration int64
	delay    int64
	easing   string
	fill     string
}

// AnimateOption configures Animate.
type AnimateOption func(*animateConfig)

// Duration sets the animation duration in milliseconds.
func Duration(ms int64) AnimateOption {
	return func(c *animateConfig) {
		c.duration = ms
	}
}

// Delay sets the start delay in milliseconds.
func Delay(ms int64) AnimateOption {
	return func(c *animateConfig) {
		c.delay = ms
	}
}

// Easing sets the timing function.
func Easing(easing string) AnimateOption {
	return func(c *animateConfig) {
		c.easing = easing
	}
}

// Fill sets the fill mode.
func Fill(mode string) AnimateOption {
	return func(c *animateConfig) {
		c.fill = mode
	}
}

// Common scroll behaviors.
const (
	BehaviorInstant = "instant"
	BehaviorSmooth  = "smooth"
)
