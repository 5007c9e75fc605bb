package components

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
	"github.com/manuschillerdev/doklab-site/internal/site"
)

func TestRenderHeader(t *testing.T) {
	meta := site.DefaultMeta()
	meta.BasePath = "/doklab-docs"

	out := RenderHeader(DoklabHeader(meta))
	assert.Contains(t, out, `<a href="#main-content" class="skip-link">`)
	assert.Contains(t, out, `<a href="/doklab-docs/" class="logo" aria-label="doklab home">doklab</a>`)
	assert.Contains(t, out, `<a href="/doklab-docs/docs">Documentation</a>`)
}

func TestRenderHero(t *testing.T) {
	out := RenderHero(DoklabHero(site.DefaultMeta()))
	assert.Contains(t, out, `<h1 id="hero-title" class="hero-title animate-fade-in">Platform features for Docker Compose</h1>`)
	assert.Contains(t, out, `<a href="/docs/getting-started" class="btn btn-primary">Get Started</a>`)
	assert.Contains(t, out, `<a href="/docs" class="btn btn-outline">View Documentation</a>`)
	assert.Contains(t, out, `src="/logo.svg"`)

	out = RenderHero(HeroOptions{Title: "<x>"})
	assert.Contains(t, out, "&lt;x&gt;")
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "btn-primary")
}

func TestRenderFeatures(t *testing.T) {
	out := RenderFeatures(FeaturesOptions{
		Title:    "Platform features, compose simplicity",
		Features: DoklabFeatures(),
		Class:    "mobile-only",
	})
	assert.Contains(t, out, `<section class="section mobile-only" id="features"`)
	assert.Equal(t, 6, strings.Count(out, `class="feature-item"`))
	assert.Contains(t, out, "<h3>Scale to zero</h3>")
}

func TestRenderExample(t *testing.T) {
	code, err := highlight.NewChroma().Highlight(context.Background(), highlight.Snippet{Value: "$ doklab up", Lang: "bash"}, highlight.DefaultTheme)
	require.NoError(t, err)

	out := RenderExample(ExampleOptions{
		Title: "Example",
		Windows: []CodeWindowOptions{
			{Filename: "terminal", Code: code, Prefix: "ex"},
			{Filename: "broken.yaml"},
		},
	})
	assert.Equal(t, 2, strings.Count(out, `class="code-window"`))
	assert.Contains(t, out, `<span class="code-filename">terminal</span>`)
	assert.Contains(t, out, `id="ex-l0"`)
	assert.Contains(t, out, `code-empty`)
}

func TestRenderCTA(t *testing.T) {
	out := RenderCTA(DoklabCTA(site.DefaultMeta()))
	assert.Contains(t, out, "Ready to level up your homelab?")
	assert.Contains(t, out, `<form class="cta-form" data-inert>`)
	assert.Contains(t, out, `type="email"`)
	assert.Contains(t, out, `Or <a href="/docs" class="btn-link">read the documentation</a>`)

	opts := DoklabCTA(site.DefaultMeta())
	opts.Action = "/waitlist"
	assert.Contains(t, RenderCTA(opts), `action="/waitlist" method="post"`)
}

func TestRenderFooter(t *testing.T) {
	meta := site.DefaultMeta()

	out := RenderFooter(DoklabFooter(meta, 2026))
	assert.Equal(t, 4, strings.Count(out, "<h4>"))
	assert.Contains(t, out, "© 2026 doklab. All rights reserved.")
	assert.Contains(t, out, `<a href="https://github.com/manuschillerdev/doklab" target="_blank" rel="noopener noreferrer">GitHub</a>`)
	assert.Contains(t, out, `<a href="#privacy">Privacy</a>`)

	out = RenderFooter(DocsFooter(meta, 2026))
	assert.NotContains(t, out, "footer-columns")
	assert.Contains(t, out, "MIT 2026 © doklab")
}

func TestRenderInterlude(t *testing.T) {
	out := RenderInterlude(DoklabInterlude())
	assert.Contains(t, out, `<h2 class="section-title">One config to rule them all</h2>`)
	assert.Contains(t, out, "they&#39;re deployed")
}
