package site

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeta_Title(t *testing.T) {
	m := DefaultMeta()

	tests := []struct {
		in   string
		want string
	}{
		{"", "doklab - Platform features for Docker Compose"},
		{"Labels", "Labels - doklab"},
	}
	for _, tt := range tests {
		if got := m.Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	m.TitleTemplate = ""
	assert.Equal(t, "Labels", m.Title("Labels"))
}

func TestMeta_Href(t *testing.T) {
	m := DefaultMeta()
	assert.Equal(t, "/docs", m.Href("/docs"))

	m.BasePath = "/doklab-docs/"
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/doklab-docs/"},
		{"/docs/labels", "/doklab-docs/docs/labels"},
		{"#features", "#features"},
		{"https://github.com/manuschillerdev/doklab", "https://github.com/manuschillerdev/doklab"},
		{"//cdn.example.com/x.js", "//cdn.example.com/x.js"},
	}
	for _, tt := range tests {
		if got := m.Href(tt.in); got != tt.want {
			t.Errorf("Href(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	assert.Equal(t, "https://doklab.dev/doklab-docs/docs/labels", m.URL("docs/labels"))
}

func TestRenderDocument(t *testing.T) {
	m := DefaultMeta()
	m.BasePath = "/sub"
	cfg := m.Page("Labels", "/docs/labels")
	cfg.Nonce = "abc"

	out := RenderDocument(cfg, ".x{}", "<p>body</p>")

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>\n<html lang=\"en\" class=\"dark\">"))
	assert.Contains(t, out, "<title>Labels - doklab</title>")
	assert.Contains(t, out, `<link rel="canonical" href="https://doklab.dev/sub/docs/labels">`)
	assert.Contains(t, out, `<link rel="icon" href="/sub/icon.svg" type="image/svg+xml">`)
	assert.Contains(t, out, `<script src="/sub/_live/doklab.js" nonce="abc" defer></script>`)
	assert.Contains(t, out, `"@type":"SoftwareApplication"`)
	assert.Contains(t, out, `"name":"doklab"`)
	assert.Contains(t, out, ".x{}")
	assert.Contains(t, out, "<body>\n<p>body</p>\n</body>")
}

func TestRenderJSONLD_Escapes(t *testing.T) {
	out := renderJSONLD(PageConfig{SiteName: "</script><b>"})
	assert.Equal(t, 1, strings.Count(out, "</script>"))
}

func TestRenderStyles_Stable(t *testing.T) {
	first := RenderStyles()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, RenderStyles(), "palette order must not depend on map iteration")
	}
	assert.Contains(t, first, "--color-background:#0A0A0B;--color-border:")
	assert.Contains(t, first, ".code-line.dimmed{opacity:0.5}")
	assert.Contains(t, first, "@media(min-width:1024px)")

	custom := RenderStyles(WithCustomColors(map[string]string{"primary": "#FF0000"}), WithAnimations(false))
	assert.Contains(t, custom, "--color-primary:#FF0000")
	assert.NotContains(t, custom, "@keyframes")
}
