package components

import (
	"fmt"
	"html"
	"strings"
)

// InterludeOptions configures a centered statement between two sections.
type InterludeOptions struct {
	Title string
	Lead  string
}

// RenderInterlude generates a centered title and lead.
func RenderInterlude(opts InterludeOptions) string {
	var sb strings.Builder

	sb.WriteString(`<section class="interlude section-border">` + "\n")
	sb.WriteString(`<div class="container text-center">` + "\n")
	fmt.Fprintf(&sb, `<h2 class="section-title">%s</h2>`+"\n", html.EscapeString(opts.Title))
	if opts.Lead != "" {
		fmt.Fprintf(&sb, `<p class="section-lead">%s</p>`+"\n", html.EscapeString(opts.Lead))
	}
	sb.WriteString("</div>\n</section>\n")

	return sb.String()
}

// CTAOptions configures the closing call to action.
type CTAOptions struct {
	Title       string
	Lead        string
	Placeholder string
	ButtonText  string
	// Action is the form target. Without one the form is marked inert and
	// the client swallows submissions.
	Action    string
	DocsLabel string
	DocsURL   string
}

// RenderCTA generates the waitlist call to action.
func RenderCTA(opts CTAOptions) string {
	var sb strings.Builder

	sb.WriteString(`<section class="cta section-border" id="waitlist" aria-labelledby="cta-title">` + "\n")
	sb.WriteString(`<div class="container text-center">` + "\n")
	fmt.Fprintf(&sb, `<h2 id="cta-title" class="section-title">%s</h2>`+"\n", html.EscapeString(opts.Title))
	if opts.Lead != "" {
		fmt.Fprintf(&sb, `<p class="section-lead">%s</p>`+"\n", html.EscapeString(opts.Lead))
	}

	sb.WriteString(`<form class="cta-form"`)
	if opts.Action != "" {
		fmt.Fprintf(&sb, ` action="%s" method="post"`, html.EscapeString(opts.Action))
	} else {
		sb.WriteString(` data-inert`)
	}
	sb.WriteString(">\n")
	sb.WriteString(`<label for="waitlist-email" class="sr-only">Email address</label>` + "\n")
	fmt.Fprintf(&sb, `<input id="waitlist-email" type="email" name="email" placeholder="%s" required>`+"\n",
		html.EscapeString(opts.Placeholder))
	fmt.Fprintf(&sb, `<button type="submit" class="btn btn-primary">%s</button>`+"\n", html.EscapeString(opts.ButtonText))
	sb.WriteString("</form>\n")

	if opts.DocsURL != "" {
		fmt.Fprintf(&sb, `<p>Or <a href="%s" class="btn-link">%s</a></p>`+"\n",
			html.EscapeString(opts.DocsURL), html.EscapeString(opts.DocsLabel))
	}

	sb.WriteString("</div>\n</section>\n")
	return sb.String()
}
