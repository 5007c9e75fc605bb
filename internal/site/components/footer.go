package components

import (
	"html"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/site"
)

// FooterOptions configures the footer.
type FooterOptions struct {
	Columns   []site.FooterColumn
	Copyright string
	// Legal links are shown beside the copyright.
	Legal []site.NavLink
}

// RenderFooter generates the page footer.
func RenderFooter(opts FooterOptions) string {
	var sb strings.Builder

	sb.WriteString(`<footer class="site-footer" role="contentinfo">` + "\n")
	sb.WriteString(`<div class="container">` + "\n")

	if len(opts.Columns) > 0 {
		sb.WriteString(`<div class="footer-columns">` + "\n")
		for _, col := range opts.Columns {
			sb.WriteString("<div><h4>")
			sb.WriteString(html.EscapeString(col.Title))
			sb.WriteString("</h4><ul>")
			for _, link := range col.Links {
				sb.WriteString("<li>")
				writeLink(&sb, link, "")
				sb.WriteString("</li>")
			}
			sb.WriteString("</ul></div>\n")
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString(`<div class="footer-bottom">` + "\n")
	sb.WriteString("<span>")
	sb.WriteString(html.EscapeString(opts.Copyright))
	sb.WriteString("</span>\n")
	if len(opts.Legal) > 0 {
		sb.WriteString(`<nav aria-label="Legal">`)
		for _, link := range opts.Legal {
			writeLink(&sb, link, "")
		}
		sb.WriteString("</nav>\n")
	}
	sb.WriteString("</div>\n</div>\n</footer>\n")

	return sb.String()
}
