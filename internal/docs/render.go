package docs

import (
	"fmt"
	"html"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/site"
	"github.com/manuschillerdev/doklab-site/internal/site/components"
)

// RenderOptions carries per-request values.
type RenderOptions struct {
	Year int
	// Nonce is the CSP nonce of the request.
	Nonce string
	// LivePath adds the client script joined to this live route, used in
	// development to reload on content changes.
	LivePath string
}

// Render returns the full document of the page at slug.
func (s *Site) Render(slug string, opts RenderOptions) (string, error) {
	page, err := s.Page(slug)
	if err != nil {
		return "", err
	}

	title := page.Title
	if page.Slug == "" {
		title = "Documentation"
	}
	cfg := s.meta.Page(title, s.URL(page.Slug))
	if page.Description != "" {
		cfg.Description = page.Description
	}
	cfg.Nonce = opts.Nonce
	if opts.LivePath == "" {
		cfg.Script = ""
	}

	return site.RenderDocument(cfg, "", s.body(page, opts)), nil
}

func (s *Site) body(page *Page, opts RenderOptions) string {
	var sb strings.Builder

	sb.WriteString(components.RenderHeader(components.DoklabHeader(s.meta)))

	sb.WriteString(`<div class="container docs-layout"`)
	if opts.LivePath != "" {
		fmt.Fprintf(&sb, ` data-live-view="docs" data-live-path="%s"`, html.EscapeString(s.meta.Href(opts.LivePath)))
	}
	sb.WriteString(">\n")

	indexTitle := "Introduction"
	if root, ok := s.pages[""]; ok {
		indexTitle = root.Title
	}
	sb.WriteString(s.tree.ToHTML(page.Slug, s.opts.CollapseLevel, func(slug string) string {
		return s.meta.Href(s.URL(slug))
	}, indexTitle))

	sb.WriteString(`<main id="main-content" class="docs-content">` + "\n")
	sb.WriteString(page.HTML)
	if edit := s.EditURL(page); edit != "" {
		text := s.opts.EditLinkText
		if text == "" {
			text = "Edit this page"
		}
		sb.WriteString(`<a class="docs-edit" href="`)
		sb.WriteString(html.EscapeString(edit))
		sb.WriteString(`" target="_blank" rel="noopener noreferrer">`)
		sb.WriteString(html.EscapeString(text))
		sb.WriteString("</a>\n")
	}
	sb.WriteString("</main>\n</div>\n")

	sb.WriteString(components.RenderFooter(components.DocsFooter(s.meta, opts.Year)))
	return sb.String()
}
