package docs

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuschillerdev/doklab-site/internal/content"
	"github.com/manuschillerdev/doklab-site/internal/site"
)

func TestSplitFrontMatter(t *testing.T) {
	fm, body, err := splitFrontMatter([]byte("---\ntitle: Routing\norder: 3\n---\n# Hi\n"))
	require.NoError(t, err)
	assert.Equal(t, "Routing", fm.Title)
	assert.Equal(t, 3, fm.Order)
	assert.Equal(t, "# Hi\n", string(body))

	fm, body, err = splitFrontMatter([]byte("\ufeff# Plain\n"))
	require.NoError(t, err)
	assert.Empty(t, fm.Title)
	assert.Equal(t, "# Plain\n", string(body))

	_, _, err = splitFrontMatter([]byte("---\ntitle: x\n"))
	assert.ErrorIs(t, err, ErrFrontMatter)

	_, _, err = splitFrontMatter([]byte("---\ntitle: [x\n---\n"))
	assert.ErrorIs(t, err, ErrFrontMatter)
}

func TestSlugFor(t *testing.T) {
	cases := map[string]struct {
		slug  string
		index bool
	}{
		"index.md":          {"", true},
		"configuration.md":  {"configuration", false},
		"labels/index.md":   {"labels", true},
		"labels/routing.md": {"labels/routing", false},
	}
	for in, want := range cases {
		slug, index := slugFor(in)
		assert.Equal(t, want.slug, slug, in)
		assert.Equal(t, want.index, index, in)
	}
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.md":            {Data: []byte("# Welcome\n\nSee [start](/docs/getting-started).\n")},
		"getting-started.md":  {Data: []byte("---\ntitle: Getting Started\norder: 1\n---\n# Start here\n\n```bash\n$ doklab up\n```\n")},
		"labels/index.md":     {Data: []byte("---\norder: 2\n---\n# Labels\n")},
		"labels/routing.md":   {Data: []byte("---\norder: 1\ndescription: Routing labels\n---\n# Routing\n")},
		"labels/lifecycle.md": {Data: []byte("no heading\n")},
		"labels/notes.txt":    {Data: []byte("ignored")},
		"advanced/cluster.md": {Data: []byte("---\norder: 9\n---\n# Cluster\n")},
	}
}

func TestNew(t *testing.T) {
	s, err := New(testFS(), site.DefaultMeta(), DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, s.Pages(), 6)

	page, err := s.Page("/labels/routing/")
	require.NoError(t, err)
	assert.Equal(t, "Routing", page.Title)
	assert.Equal(t, "Routing labels", page.Description)

	page, err = s.Page("labels/lifecycle")
	require.NoError(t, err)
	assert.Equal(t, "Lifecycle", page.Title)

	page, err = s.Page("getting-started")
	require.NoError(t, err)
	assert.Equal(t, "Getting Started", page.Title)
	assert.Contains(t, page.HTML, `id="start-here"`)
	assert.Contains(t, page.HTML, "<pre")

	_, err = s.Page("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNew_BasePathLinks(t *testing.T) {
	meta := site.DefaultMeta()
	meta.BasePath = "/doklab"

	s, err := New(testFS(), meta, DefaultOptions())
	require.NoError(t, err)

	page, err := s.Page("")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, `href="/doklab/docs/getting-started"`)
}

func TestNew_BadFrontMatter(t *testing.T) {
	fsys := fstest.MapFS{"broken.md": {Data: []byte("---\ntitle: x\n")}}
	_, err := New(fsys, site.DefaultMeta(), DefaultOptions())
	assert.ErrorIs(t, err, ErrFrontMatter)
	assert.Contains(t, err.Error(), "broken.md")
}

func TestBuildTree(t *testing.T) {
	s, err := New(testFS(), site.DefaultMeta(), DefaultOptions())
	require.NoError(t, err)

	root := s.Tree()
	require.Len(t, root.Children, 3)

	// A directory without index page has no order of its own and is listed
	// but not linked.
	advanced := root.Children[0]
	assert.Equal(t, "Advanced", advanced.Title)
	assert.True(t, advanced.IsDir)
	assert.False(t, advanced.HasPage)

	assert.Equal(t, "getting-started", root.Children[1].Slug)
	assert.Equal(t, "labels", root.Children[2].Slug)
	assert.True(t, root.Children[2].IsDir)
	assert.True(t, root.Children[2].HasPage)

	labels := root.Children[2].Children
	require.Len(t, labels, 2)
	assert.Equal(t, "Lifecycle", labels[0].Title)
	assert.Equal(t, "Routing", labels[1].Title)
}

func TestToHTML_Collapse(t *testing.T) {
	s, err := New(testFS(), site.DefaultMeta(), DefaultOptions())
	require.NoError(t, err)
	href := func(slug string) string { return s.URL(slug) }

	out := s.Tree().ToHTML("getting-started", 1, href, "Welcome")
	assert.Contains(t, out, `<a href="/docs/getting-started" class="active" aria-current="page">`)
	assert.Contains(t, out, `<li class="dir collapsed"><a href="/docs/labels">Labels</a>`)
	assert.Contains(t, out, `<li><a href="/docs">Welcome</a></li>`)

	out = s.Tree().ToHTML("labels/routing", 1, href, "Welcome")
	assert.Contains(t, out, `<li class="dir expanded"><a href="/docs/labels">Labels</a>`)
	assert.Contains(t, out, `<li class="dir collapsed"><span>Advanced</span>`)

	out = s.Tree().ToHTML("", 2, href, "Welcome")
	assert.Equal(t, 0, strings.Count(out, "collapsed"))
}

func TestRender(t *testing.T) {
	s, err := New(testFS(), site.DefaultMeta(), DefaultOptions())
	require.NoError(t, err)

	out, err := s.Render("labels/routing", RenderOptions{Year: 2026, Nonce: "n0"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Routing - doklab</title>")
	assert.Contains(t, out, `<meta name="description" content="Routing labels">`)
	assert.Contains(t, out, `href="https://github.com/manuschillerdev/doklab/tree/main/landing/content/labels/routing.md"`)
	assert.Contains(t, out, "Edit this page on GitHub")
	assert.Contains(t, out, "MIT 2026 © doklab")
	assert.NotContains(t, out, "<script src=")
	assert.NotContains(t, out, "data-live-view")

	out, err = s.Render("", RenderOptions{Year: 2026, LivePath: "/_live/socket"})
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Documentation - doklab</title>")
	assert.Contains(t, out, `<script src="/_live/doklab.js"`)
	assert.Contains(t, out, `data-live-view="docs" data-live-path="/_live/socket"`)

	_, err = s.Render("nope", RenderOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRender_NoEditLink(t *testing.T) {
	meta := site.DefaultMeta()
	meta.DocsRepositoryBase = ""
	s, err := New(testFS(), meta, DefaultOptions())
	require.NoError(t, err)

	out, err := s.Render("getting-started", RenderOptions{})
	require.NoError(t, err)
	assert.NotContains(t, out, "docs-edit")
}

func TestEmbeddedDocs(t *testing.T) {
	b, err := content.Load(content.Embedded())
	require.NoError(t, err)

	s, err := New(b.Docs, site.DefaultMeta(), DefaultOptions())
	require.NoError(t, err)

	for _, p := range s.Pages() {
		_, err := s.Render(p.Slug, RenderOptions{Year: 2026})
		assert.NoError(t, err, p.Slug)
	}

	labels, err := s.Page("labels")
	require.NoError(t, err)
	assert.True(t, labels.IsIndex)
	assert.Equal(t, "Labels", labels.Title)
}
