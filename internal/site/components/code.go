package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
)

// CodeWindowOptions configures a static code window.
type CodeWindowOptions struct {
	Filename string
	Code     *highlight.Code
	// Prefix is the element id prefix of lines and tokens.
	Prefix string
}

// RenderCodeWindow generates a window-styled block of highlighted code.
func RenderCodeWindow(opts CodeWindowOptions) string {
	var sb strings.Builder

	sb.WriteString(`<div class="code-window">`)
	sb.WriteString(`<div class="code-header">`)
	sb.WriteString(`<div class="code-dots" aria-hidden="true">`)
	sb.WriteString(`<span class="code-dot code-dot-red"></span>`)
	sb.WriteString(`<span class="code-dot code-dot-yellow"></span>`)
	sb.WriteString(`<span class="code-dot code-dot-green"></span>`)
	sb.WriteString(`</div>`)
	if opts.Filename != "" {
		fmt.Fprintf(&sb, `<span class="code-filename">%s</span>`, html.EscapeString(opts.Filename))
	}
	sb.WriteString(`</div>`)

	sb.WriteString(`<div class="code-scroll">`)
	if opts.Code == nil {
		sb.WriteString(`<pre class="code-pre code-empty"><code></code></pre>`)
	} else {
		highlight.WriteHTML(&sb, opts.Code, opts.Prefix)
	}
	sb.WriteString("</div></div>\n")

	return sb.String()
}

// ExampleOptions configures the static example section.
type ExampleOptions struct {
	ID       string
	Title    string
	Subtitle string
	Windows  []CodeWindowOptions
	Class    string
}

// RenderExample generates a section of side by side code windows.
func RenderExample(opts ExampleOptions) string {
	var sb strings.Builder

	id := opts.ID
	if id == "" {
		id = "example"
	}
	class := "section section-border"
	if opts.Class != "" {
		class += " " + opts.Class
	}

	fmt.Fprintf(&sb, `<section class="%s" id="%s" aria-labelledby="%s-title">`+"\n",
		html.EscapeString(class), html.EscapeString(id), html.EscapeString(id))
	sb.WriteString(`<div class="container">` + "\n")
	sb.WriteString(`<div class="text-center">` + "\n")
	fmt.Fprintf(&sb, `<h2 id="%s-title" class="section-title">%s</h2>`+"\n", html.EscapeString(id), html.EscapeString(opts.Title))
	if opts.Subtitle != "" {
		fmt.Fprintf(&sb, `<p class="section-lead">%s</p>`+"\n", html.EscapeString(opts.Subtitle))
	}
	sb.WriteString("</div>\n")

	sb.WriteString(`<div class="example-windows">` + "\n")
	for _, w := range opts.Windows {
		sb.WriteString(RenderCodeWindow(w))
	}
	sb.WriteString("</div>\n</div>\n</section>\n")

	return sb.String()
}
