package components

import (
	"fmt"
	"html"
	"strings"
)

// HeroOptions configures the hero section.
type HeroOptions struct {
	Title           string
	Lead            string
	PrimaryButton   HeroButton
	SecondaryButton HeroButton
	// LogoSrc is an optional illustration shown beside the text.
	LogoSrc string
	LogoAlt string
}

// HeroButton is a call to action of the hero.
type HeroButton struct {
	Text string
	URL  string
}

// RenderHero generates the hero with the headline, the lead and the calls
// to action.
func RenderHero(opts HeroOptions) string {
	var sb strings.Builder

	sb.WriteString(`<section class="hero" aria-labelledby="hero-title">` + "\n")
	sb.WriteString(`<div class="container hero-grid">` + "\n")
	sb.WriteString(`<div>` + "\n")

	fmt.Fprintf(&sb, `<h1 id="hero-title" class="hero-title animate-fade-in">%s</h1>`+"\n", html.EscapeString(opts.Title))
	if opts.Lead != "" {
		fmt.Fprintf(&sb, `<p class="hero-lead">%s</p>`+"\n", html.EscapeString(opts.Lead))
	}

	sb.WriteString(`<div class="hero-actions">` + "\n")
	if opts.PrimaryButton.Text != "" {
		fmt.Fprintf(&sb, `<a href="%s" class="btn btn-primary">%s</a>`+"\n",
			html.EscapeString(opts.PrimaryButton.URL), html.EscapeString(opts.PrimaryButton.Text))
	}
	if opts.SecondaryButton.Text != "" {
		fmt.Fprintf(&sb, `<a href="%s" class="btn btn-outline">%s</a>`+"\n",
			html.EscapeString(opts.SecondaryButton.URL), html.EscapeString(opts.SecondaryButton.Text))
	}
	sb.WriteString("</div>\n</div>\n")

	if opts.LogoSrc != "" {
		fmt.Fprintf(&sb, `<img class="hero-logo" src="%s" alt="%s" width="352" height="352">`+"\n",
			html.EscapeString(opts.LogoSrc), html.EscapeString(opts.LogoAlt))
	}

	sb.WriteString("</div>\n</section>\n")
	return sb.String()
}
