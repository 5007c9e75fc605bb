package scrolly

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrDanglingRef is returned when a description references a tab its step
// does not have.
var ErrDanglingRef = errors.New("reference to unknown tab")

var refRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Segment is a piece of a step description. Ref segments name a tab.
type Segment struct {
	Text string
	Ref  bool
}

// ParseDescription splits s into plain text and [[tab]] reference segments.
// Empty plain segments are dropped.
func ParseDescription(s string) []Segment {
	var segments []Segment
	last := 0
	for _, m := range refRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Text: s[last:m[0]]})
		}
		segments = append(segments, Segment{Text: s[m[2]:m[3]], Ref: true})
		last = m[1]
	}
	if last < len(s) {
		segments = append(segments, Segment{Text: s[last:]})
	}
	return segments
}

// Paragraphs splits a description on blank lines.
func Paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Refs returns the tab names referenced by s, in order.
func Refs(s string) []string {
	var refs []string
	for _, seg := range ParseDescription(s) {
		if seg.Ref {
			refs = append(refs, seg.Text)
		}
	}
	return refs
}

// CheckRefs verifies that every reference in the catalog's descriptions names
// a tab of the same step.
func CheckRefs(c *Catalog) error {
	var errs []error
	for i, step := range c.steps {
		for _, ref := range Refs(step.Description) {
			if !step.HasTab(ref) {
				errs = append(errs, fmt.Errorf("catalog %q step %d: %w: %q", c.name, i, ErrDanglingRef, ref))
			}
		}
	}
	return errors.Join(errs...)
}
