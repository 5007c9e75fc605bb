// Package scrolly implements the scroll-synchronized snippet presenter: an
// immutable step catalog, a scroll observer that picks the active step, and a
// presenter that highlights the active step's tabs and drives focus scrolling
// and token transitions through a rendering Surface.
package scrolly

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
)

// Catalog validation errors.
var (
	ErrEmptyCatalog = errors.New("catalog has no steps")
	ErrNoTabs       = errors.New("step has no tabs")
	ErrEmptyTabName = errors.New("tab name is empty")
	ErrDuplicateTab = errors.New("duplicate tab name")
)

// Tab is a named code snippet within a step.
type Tab struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Step pairs narrative text with one or more snippets.
type Step struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Tabs        []Tab  `yaml:"tabs"`
}

// TabNames returns the step's tab names in display order.
func (s Step) TabNames() []string {
	names := make([]string, len(s.Tabs))
	for i, t := range s.Tabs {
		names[i] = t.Name
	}
	return names
}

// HasTab reports whether the step has a tab with the given name.
func (s Step) HasTab(name string) bool {
	for _, t := range s.Tabs {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Catalog is an ordered, immutable sequence of steps.
type Catalog struct {
	name  string
	steps []Step
}

type catalogFile struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// NewCatalog validates steps and returns a catalog holding a private copy.
func NewCatalog(name string, steps []Step) (*Catalog, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("catalog %q: %w", name, ErrEmptyCatalog)
	}

	copied := make([]Step, len(steps))
	for i, step := range steps {
		if len(step.Tabs) == 0 {
			return nil, fmt.Errorf("catalog %q step %d: %w", name, i, ErrNoTabs)
		}
		seen := make(map[string]bool, len(step.Tabs))
		for _, tab := range step.Tabs {
			if strings.TrimSpace(tab.Name) == "" {
				return nil, fmt.Errorf("catalog %q step %d: %w", name, i, ErrEmptyTabName)
			}
			if seen[tab.Name] {
				return nil, fmt.Errorf("catalog %q step %d tab %q: %w", name, i, tab.Name, ErrDuplicateTab)
			}
			seen[tab.Name] = true
		}
		copied[i] = Step{
			Title:       step.Title,
			Description: step.Description,
			Tabs:        append([]Tab(nil), step.Tabs...),
		}
	}

	return &Catalog{name: name, steps: copied}, nil
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewCatalog(file.Name, file.Steps)
}

// LoadCatalog reads and parses a YAML catalog from fsys.
func LoadCatalog(fsys fs.FS, path string) (*Catalog, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ParseCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// Len returns the number of steps.
func (c *Catalog) Len() int { return len(c.steps) }

// Step returns the step at index i.
func (c *Catalog) Step(i int) (Step, bool) {
	if i < 0 || i >= len(c.steps) {
		return Step{}, false
	}
	return c.steps[i], true
}

// Steps returns a copy of all steps.
func (c *Catalog) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// Valid reports whether i indexes a step.
func (c *Catalog) Valid(i int) bool {
	return i >= 0 && i < len(c.steps)
}

func (c *Catalog) snippets(i int) []highlight.Tab {
	step := c.steps[i]
	tabs := make([]highlight.Tab, len(step.Tabs))
	for j, t := range step.Tabs {
		tabs[j] = highlight.Tab{Name: t.Name, Code: t.Code}
	}
	return tabs
}
