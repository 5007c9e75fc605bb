// Package site provides the page shell shared by the landing page and the
// documentation: metadata, the document head, the stylesheet and the
// navigation model.
package site

import (
	"fmt"
	"path"
	"strings"
)

// ClientScript is the path of the live client, relative to the base path.
const ClientScript = "/_live/doklab.js"

// Meta holds site-wide metadata.
type Meta struct {
	Name string
	// BaseURL is the absolute origin used for canonical links and the sitemap.
	BaseURL string
	// BasePath prefixes every internal link, e.g. "/doklab-docs" when the
	// site is published below a sub path.
	BasePath           string
	TitleTemplate      string
	DefaultTitle       string
	Description        string
	RepositoryURL      string
	DocsRepositoryBase string
	ThemeColor         string
	Icons              []Icon
}

// Icon is a <link rel="icon"> entry.
type Icon struct {
	Rel   string
	Href  string
	Type  string
	Media string
}

// DefaultMeta returns the metadata of doklab.dev.
func DefaultMeta() Meta {
	return Meta{
		Name:               "doklab",
		BaseURL:            "https://doklab.dev",
		TitleTemplate:      "%s - doklab",
		DefaultTitle:       "doklab - Platform features for Docker Compose",
		Description:        "Add routing, secrets, backups, autoheal, scale-to-zero, and GitOps to your Docker Compose apps with simple labels.",
		RepositoryURL:      "https://github.com/manuschillerdev/doklab",
		DocsRepositoryBase: "https://github.com/manuschillerdev/doklab/tree/main/landing/content",
		ThemeColor:         Colors["background"],
		Icons: []Icon{
			{Rel: "icon", Href: "/icon.svg", Type: "image/svg+xml"},
		},
	}
}

// Title applies the title template. An empty title yields the default.
func (m Meta) Title(title string) string {
	if title == "" {
		return m.DefaultTitle
	}
	if m.TitleTemplate == "" || !strings.Contains(m.TitleTemplate, "%s") {
		return title
	}
	return fmt.Sprintf(m.TitleTemplate, title)
}

// Href prefixes an absolute site path with the base path. Other URLs are
// returned unchanged.
func (m Meta) Href(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return p
	}
	if m.BasePath == "" || m.BasePath == "/" {
		return p
	}
	base := "/" + strings.Trim(m.BasePath, "/")
	if p == "/" {
		return base + "/"
	}
	return base + p
}

// URL returns the absolute URL of a site path.
func (m Meta) URL(p string) string {
	return strings.TrimRight(m.BaseURL, "/") + m.Href(path.Clean("/"+p))
}

// Page builds the configuration of one page.
func (m Meta) Page(title, p string) PageConfig {
	return PageConfig{
		Title:       m.Title(title),
		Description: m.Description,
		URL:         m.URL(p),
		Language:    "en",
		ThemeColor:  m.ThemeColor,
		SiteName:    m.Name,
		Icons:       m.hrefIcons(),
		Script:      m.Href(ClientScript),
	}
}

func (m Meta) hrefIcons() []Icon {
	icons := make([]Icon, len(m.Icons))
	for i, icon := range m.Icons {
		icon.Href = m.Href(icon.Href)
		icons[i] = icon
	}
	return icons
}

// PageConfig defines the head of one page.
type PageConfig struct {
	// Title is the final document title.
	Title       string
	Description string
	// URL is the canonical URL.
	URL        string
	OGImage    string
	Language   string
	ThemeColor string
	SiteName   string
	Icons      []Icon
	// Script is the live client. Empty for static pages.
	Script string
	// Nonce is the per-request CSP nonce put on the script tag.
	Nonce string
}

// NavLink is a navigation entry.
type NavLink struct {
	Label    string
	URL      string
	External bool
}

// FooterColumn is a titled group of footer links.
type FooterColumn struct {
	Title string
	Links []NavLink
}

// Feature is an entry of the features list.
type Feature struct {
	Title       string
	Description string
}
