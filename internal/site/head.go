package site

import (
	"fmt"
	"html"
	"strings"

	"github.com/goccy/go-json"
)

// RenderHead generates the <head> section with SEO, Open Graph and JSON-LD
// metadata, the icons and the inline stylesheet.
func RenderHead(cfg PageConfig, customCSS string) string {
	var sb strings.Builder

	sb.WriteString("<head>\n")
	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(cfg.Title))

	if cfg.Description != "" {
		fmt.Fprintf(&sb, `<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description))
	}
	if cfg.URL != "" {
		fmt.Fprintf(&sb, `<link rel="canonical" href="%s">`+"\n", html.EscapeString(cfg.URL))
	}
	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = Colors["background"]
	}
	fmt.Fprintf(&sb, `<meta name="theme-color" content="%s">`+"\n", html.EscapeString(themeColor))
	sb.WriteString(`<meta name="color-scheme" content="dark">` + "\n")

	sb.WriteString(renderOpenGraph(cfg))
	sb.WriteString(renderTwitterCard(cfg))
	sb.WriteString(renderJSONLD(cfg))

	for _, icon := range cfg.Icons {
		fmt.Fprintf(&sb, `<link rel="%s" href="%s"`, html.EscapeString(icon.Rel), html.EscapeString(icon.Href))
		if icon.Type != "" {
			fmt.Fprintf(&sb, ` type="%s"`, html.EscapeString(icon.Type))
		}
		if icon.Media != "" {
			fmt.Fprintf(&sb, ` media="%s"`, html.EscapeString(icon.Media))
		}
		sb.WriteString(">\n")
	}

	sb.WriteString("<style>\n")
	sb.WriteString(RenderStyles())
	if customCSS != "" {
		sb.WriteString("\n")
		sb.WriteString(customCSS)
	}
	sb.WriteString("\n</style>\n")

	if cfg.Script != "" {
		sb.WriteString(`<script src="`)
		sb.WriteString(html.EscapeString(cfg.Script))
		sb.WriteString(`"`)
		if cfg.Nonce != "" {
			sb.WriteString(` nonce="`)
			sb.WriteString(html.EscapeString(cfg.Nonce))
			sb.WriteString(`"`)
		}
		sb.WriteString(" defer></script>\n")
	}

	sb.WriteString("</head>\n")
	return sb.String()
}

func renderOpenGraph(cfg PageConfig) string {
	var sb strings.Builder

	sb.WriteString(`<meta property="og:type" content="website">` + "\n")
	if cfg.SiteName != "" {
		fmt.Fprintf(&sb, `<meta property="og:site_name" content="%s">`+"\n", html.EscapeString(cfg.SiteName))
	}
	if cfg.Title != "" {
		fmt.Fprintf(&sb, `<meta property="og:title" content="%s">`+"\n", html.EscapeString(cfg.Title))
	}
	if cfg.Description != "" {
		fmt.Fprintf(&sb, `<meta property="og:description" content="%s">`+"\n", html.EscapeString(cfg.Description))
	}
	if cfg.URL != "" {
		fmt.Fprintf(&sb, `<meta property="og:url" content="%s">`+"\n", html.EscapeString(cfg.URL))
	}
	if cfg.OGImage != "" {
		fmt.Fprintf(&sb, `<meta property="og:image" content="%s">`+"\n", html.EscapeString(cfg.OGImage))
	}
	return sb.String()
}

func renderTwitterCard(cfg PageConfig) string {
	var sb strings.Builder

	sb.WriteString(`<meta name="twitter:card" content="summary_large_image">` + "\n")
	if cfg.Title != "" {
		fmt.Fprintf(&sb, `<meta name="twitter:title" content="%s">`+"\n", html.EscapeString(cfg.Title))
	}
	if cfg.Description != "" {
		fmt.Fprintf(&sb, `<meta name="twitter:description" content="%s">`+"\n", html.EscapeString(cfg.Description))
	}
	return sb.String()
}

type jsonLD struct {
	Context             string `json:"@context"`
	Type                string `json:"@type"`
	Name                string `json:"name"`
	Description         string `json:"description,omitempty"`
	URL                 string `json:"url,omitempty"`
	ApplicationCategory string `json:"applicationCategory"`
	OperatingSystem     string `json:"operatingSystem"`
}

func renderJSONLD(cfg PageConfig) string {
	name := cfg.SiteName
	if name == "" {
		name = cfg.Title
	}
	data, err := json.Marshal(jsonLD{
		Context:             "https://schema.org",
		Type:                "SoftwareApplication",
		Name:                name,
		Description:         cfg.Description,
		URL:                 cfg.URL,
		ApplicationCategory: "DeveloperApplication",
		OperatingSystem:     "Linux",
	})
	if err != nil {
		return ""
	}
	// "</" inside the payload must not end the script element.
	payload := strings.ReplaceAll(string(data), "</", `<\/`)
	return `<script type="application/ld+json">` + payload + "</script>\n"
}

// RenderDocument wraps body content in a complete HTML document.
func RenderDocument(cfg PageConfig, customCSS, bodyContent string) string {
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&sb, `<html lang="%s" class="dark">`+"\n", html.EscapeString(lang))
	sb.WriteString(RenderHead(cfg, customCSS))
	sb.WriteString("<body>\n")
	sb.WriteString(bodyContent)
	sb.WriteString("\n</body>\n</html>")
	return sb.String()
}
