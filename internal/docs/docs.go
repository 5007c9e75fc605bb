// Package docs renders the documentation: markdown pages with YAML front
// matter, converted once by goldmark and served inside the site shell with
// a sidebar built from page order and titles.
package docs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/internal/site"
)

// ErrNotFound is returned for a slug without a page.
var ErrNotFound = errors.New("page not found")

// Page is one converted markdown file.
type Page struct {
	// Slug is the path below /docs without extension; "" is the index.
	Slug        string
	Path        string
	Title       string
	Description string
	Order       int
	// IsIndex is set for index.md files, which back their directory.
	IsIndex bool
	HTML    string
}

// Options configures a documentation site.
type Options struct {
	Theme string
	// CollapseLevel is the sidebar depth from which directories start
	// collapsed.
	CollapseLevel int
	EditLinkText  string
}

// DefaultOptions mirrors the landing page: dracula code blocks and a sidebar
// showing only top level entries.
func DefaultOptions() Options {
	return Options{
		Theme:         highlight.DefaultTheme,
		CollapseLevel: 1,
		EditLinkText:  "Edit this page on GitHub",
	}
}

// Site holds every page of a documentation tree.
type Site struct {
	meta  site.Meta
	opts  Options
	pages map[string]*Page
	order []*Page
	tree  *Node
}

// New converts every markdown file of fsys.
func New(fsys fs.FS, meta site.Meta, opts Options) (*Site, error) {
	if opts.Theme == "" {
		opts.Theme = highlight.DefaultTheme
	}
	s := &Site{
		meta:  meta,
		opts:  opts,
		pages: make(map[string]*Page),
	}
	md := newMarkdown(opts.Theme, meta.Href)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".md" {
			return nil
		}

		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		fm, body, err := splitFrontMatter(src)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		var buf bytes.Buffer
		if err := md.Convert(body, &buf); err != nil {
			return fmt.Errorf("converting %s: %w", p, err)
		}

		slug, isIndex := slugFor(p)
		title := fm.Title
		if title == "" {
			title = extractTitle(body)
		}
		if title == "" {
			title = formatDirName(path.Base(strings.TrimSuffix(p, ".md")))
		}

		page := &Page{
			Slug:        slug,
			Path:        p,
			Title:       title,
			Description: fm.Description,
			Order:       fm.Order,
			IsIndex:     isIndex,
			HTML:        buf.String(),
		}
		s.pages[slug] = page
		s.order = append(s.order, page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(s.order, func(i, j int) bool { return s.order[i].Slug < s.order[j].Slug })
	s.tree = BuildTree(s.order)
	return s, nil
}

// slugFor maps "labels/index.md" to "labels" and "labels/routing.md" to
// "labels/routing".
func slugFor(p string) (string, bool) {
	p = strings.TrimSuffix(p, ".md")
	if p == "index" {
		return "", true
	}
	if strings.HasSuffix(p, "/index") {
		return strings.TrimSuffix(p, "/index"), true
	}
	return p, false
}

// Page returns the page at slug. Surrounding slashes are ignored.
func (s *Site) Page(slug string) (*Page, error) {
	slug = strings.Trim(slug, "/")
	page, ok := s.pages[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, slug)
	}
	return page, nil
}

// Pages returns every page ordered by slug.
func (s *Site) Pages() []*Page {
	return s.order
}

// Tree returns the sidebar tree.
func (s *Site) Tree() *Node {
	return s.tree
}

// URL returns the site path of a page slug.
func (s *Site) URL(slug string) string {
	if slug == "" {
		return "/docs"
	}
	return "/docs/" + slug
}

// EditURL returns the link to the page source in the docs repository, or ""
// when no repository base is configured.
func (s *Site) EditURL(p *Page) string {
	if s.meta.DocsRepositoryBase == "" {
		return ""
	}
	return strings.TrimRight(s.meta.DocsRepositoryBase, "/") + "/" + p.Path
}
