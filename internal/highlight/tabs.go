package highlight

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Tab is a named snippet to highlight.
type Tab struct {
	Name string
	Code string
}

// HighlightedTab pairs a tab name with its highlighted code.
type HighlightedTab struct {
	Name string
	Code *Code
}

// Tabs highlights every tab concurrently and returns the results in tab order.
// The language of each tab is inferred from its name. The first error cancels
// the remaining work and is returned.
func Tabs(ctx context.Context, h Highlighter, tabs []Tab, theme string) ([]HighlightedTab, error) {
	results := make([]HighlightedTab, len(tabs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, tab := range tabs {
		g.Go(func() error {
			code, err := h.Highlight(gctx, Snippet{Value: tab.Code, Lang: LanguageFor(tab.Name)}, theme)
			if err != nil {
				return fmt.Errorf("highlight tab %q: %w", tab.Name, err)
			}
			results[i] = HighlightedTab{Name: tab.Name, Code: code}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
