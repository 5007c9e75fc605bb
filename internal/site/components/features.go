package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/site"
)

// FeaturesOptions configures the features list.
type FeaturesOptions struct {
	ID       string
	Title    string
	Subtitle string
	Features []site.Feature
	// Class is added to the section, e.g. "mobile-only".
	Class string
}

// RenderFeatures generates a titled list of features.
func RenderFeatures(opts FeaturesOptions) string {
	var sb strings.Builder

	id := opts.ID
	if id == "" {
		id = "features"
	}
	class := "section"
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

	sb.WriteString(`<ul class="features-list">` + "\n")
	for _, f := range opts.Features {
		fmt.Fprintf(&sb, `<li class="feature-item"><h3>%s</h3><p>%s</p></li>`+"\n",
			html.EscapeString(f.Title), html.EscapeString(f.Description))
	}
	sb.WriteString("</ul>\n</div>\n</section>\n")

	return sb.String()
}
