// Package components provides the sections of the doklab pages. Components
// return HTML strings; links are expected to be resolved against the base
// path by the caller.
package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/site"
)

// HeaderOptions configures the site header.
type HeaderOptions struct {
	Logo     string
	HomeURL  string
	Links    []site.NavLink
	SkipLink bool
}

// RenderHeader generates the sticky header with the logo and navigation.
func RenderHeader(opts HeaderOptions) string {
	var sb strings.Builder

	if opts.SkipLink {
		sb.WriteString(`<a href="#main-content" class="skip-link">Skip to main content</a>` + "\n")
	}

	home := opts.HomeURL
	if home == "" {
		home = "/"
	}

	sb.WriteString(`<header class="site-header">` + "\n")
	sb.WriteString(`<div class="container site-header-inner">` + "\n")
	fmt.Fprintf(&sb, `<a href="%s" class="logo" aria-label="%s home">%s</a>`+"\n",
		html.EscapeString(home), html.EscapeString(opts.Logo), html.EscapeString(opts.Logo))

	sb.WriteString(`<nav class="nav-links" aria-label="Main navigation">` + "\n")
	for _, link := range opts.Links {
		writeLink(&sb, link, "")
		sb.WriteString("\n")
	}
	sb.WriteString("</nav>\n</div>\n</header>\n")

	return sb.String()
}

// writeLink writes an anchor. External links open in a new tab.
func writeLink(sb *strings.Builder, link site.NavLink, class string) {
	sb.WriteString(`<a href="`)
	sb.WriteString(html.EscapeString(link.URL))
	sb.WriteString(`"`)
	if class != "" {
		sb.WriteString(` class="`)
		sb.WriteString(class)
		sb.WriteString(`"`)
	}
	if link.External {
		sb.WriteString(` target="_blank" rel="noopener noreferrer"`)
	}
	sb.WriteString(">")
	sb.WriteString(html.EscapeString(link.Label))
	sb.WriteString("</a>")
}
