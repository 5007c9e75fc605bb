package site

import (
	"fmt"
	"sort"
	"strings"
)

// Colors is the dark palette of the site. Code colours come from the
// highlighting theme and are not listed here.
var Colors = map[string]string{
	"background": "#0A0A0B",
	"surface":    "#141416",
	"surfaceAlt": "#1C1C1F",
	"codeBg":     "#282A36",
	"codeHeader": "#21222C",

	"text":      "#F4F4F5",
	"textMuted": "#A1A1AA",
	"textDim":   "#71717A",

	"primary":      "#3B82F6",
	"primaryHover": "#2563EB",
	"accent":       "#60A5FA",

	"border":      "#27272A",
	"borderLight": "#3F3F46",
}

// FontFamily uses the system stack so nothing has to be downloaded.
var FontFamily = `system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// FontMono must keep a constant advance width; the server-side layout model
// of the code panels assumes 14px glyphs on a 20px line box.
var FontMono = `'JetBrains Mono', 'SF Mono', SFMono-Regular, ui-monospace, Menlo, Consolas, monospace`

// Breakpoint at which the scrollycoding sections replace the mobile fallbacks.
const Breakpoint = "1024px"

// StyleOption customizes the generated CSS.
type StyleOption func(*styleConfig)

type styleConfig struct {
	customColors      map[string]string
	includeAnimations bool
}

// WithCustomColors overrides palette entries.
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		for k, v := range colors {
			cfg.customColors[k] = v
		}
	}
}

// WithAnimations toggles the keyframe definitions.
func WithAnimations(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.includeAnimations = include
	}
}

// RenderStyles generates the stylesheet shared by every page.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{
		customColors:      make(map[string]string),
		includeAnimations: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	colors := make(map[string]string, len(Colors)+len(cfg.customColors))
	for k, v := range Colors {
		colors[k] = v
	}
	for k, v := range cfg.customColors {
		colors[k] = v
	}

	var sb strings.Builder
	sb.WriteString(cssReset())
	sb.WriteString(cssVariables(colors))
	sb.WriteString(cssBase())
	sb.WriteString(cssLayout())
	sb.WriteString(cssHeader())
	sb.WriteString(cssHero())
	sb.WriteString(cssButtons())
	sb.WriteString(cssCode())
	sb.WriteString(cssScrolly())
	sb.WriteString(cssSections())
	sb.WriteString(cssDocs())
	if cfg.includeAnimations {
		sb.WriteString(cssAnimations())
	}
	sb.WriteString(cssAccessibility())
	sb.WriteString(cssResponsive())
	return sb.String()
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
html{-webkit-text-size-adjust:100%;tab-size:2}
body{line-height:1.6;-webkit-font-smoothing:antialiased}
img,svg{display:block;max-width:100%}
input,button{font:inherit;color:inherit}
a{color:inherit;text-decoration:none}
ul,ol{list-style:none}
`
}

// cssVariables emits the palette in a stable order so the stylesheet is
// byte-identical across renders.
func cssVariables(colors map[string]string) string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make([]string, 0, len(names))
	for _, name := range names {
		vars = append(vars, fmt.Sprintf("--color-%s:%s", name, colors[name]))
	}
	return fmt.Sprintf(":root{%s;--font-sans:%s;--font-mono:%s}\n", strings.Join(vars, ";"), FontFamily, FontMono)
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-background);color:var(--color-text);min-height:100vh}
h1{font-size:clamp(2.25rem,5vw,3.75rem);font-weight:700;letter-spacing:-0.02em;line-height:1.1}
h2{font-size:clamp(1.5rem,3vw,2.25rem);font-weight:700;letter-spacing:-0.01em;line-height:1.2}
h3{font-size:1.125rem;font-weight:600}
p{color:var(--color-textMuted)}
code{font-family:var(--font-mono);font-size:0.9em}
::selection{background:var(--color-primary);color:#fff}
`
}

func cssLayout() string {
	return `
.container{width:100%;max-width:1200px;margin:0 auto;padding:0 1.5rem}
.section{padding:5rem 0}
.section-border{border-top:1px solid var(--color-border)}
.text-center{text-align:center}
.section-title{margin-bottom:1rem}
.section-lead{font-size:1.125rem;max-width:40rem;margin:0 auto}
.lg-only{display:none}
`
}

func cssHeader() string {
	return `
.site-header{position:sticky;top:0;z-index:50;background:rgba(10,10,11,0.85);backdrop-filter:blur(12px);border-bottom:1px solid var(--color-border)}
.site-header-inner{display:flex;align-items:center;justify-content:space-between;height:4rem}
.logo{font-size:1.25rem;font-weight:700;letter-spacing:-0.02em}
.nav-links{display:flex;align-items:center;gap:1.5rem;font-size:0.875rem;color:var(--color-textMuted)}
.nav-links a:hover{color:var(--color-text)}
`
}

func cssHero() string {
	return `
.hero{padding:6rem 0 4rem}
.hero-grid{display:grid;gap:3rem;align-items:center}
.hero-title{margin-bottom:1.5rem}
.hero-lead{font-size:1.125rem;max-width:36rem;margin-bottom:2rem}
.hero-actions{display:flex;flex-wrap:wrap;gap:1rem}
.hero-logo{width:100%;max-width:22rem;margin:0 auto}
`
}

func cssButtons() string {
	return `
.btn{display:inline-flex;align-items:center;justify-content:center;gap:0.5rem;padding:0.75rem 1.5rem;font-size:1rem;font-weight:600;border-radius:0.5rem;border:1px solid transparent;cursor:pointer;transition:background 0.2s ease,border-color 0.2s ease;min-height:2.75rem}
.btn-primary{background:var(--color-primary);color:#fff}
.btn-primary:hover{background:var(--color-primaryHover)}
.btn-outline{background:transparent;border-color:var(--color-borderLight);color:var(--color-text)}
.btn-outline:hover{background:var(--color-surfaceAlt)}
.btn-link{color:var(--color-accent);text-decoration:underline;text-underline-offset:4px}
`
}

func cssCode() string {
	return `
.code-window{background:var(--color-codeBg);border-radius:0.75rem;border:1px solid var(--color-border);overflow:hidden;box-shadow:0 25px 50px rgba(0,0,0,0.4)}
.code-header{display:flex;align-items:center;gap:1rem;padding:0 1rem;height:2.75rem;background:var(--color-codeHeader);border-bottom:1px solid var(--color-border)}
.code-dots{display:flex;gap:0.5rem}
.code-dot{width:0.75rem;height:0.75rem;border-radius:50%}
.code-dot-red{background:#ff5f56}
.code-dot-yellow{background:#ffbd2e}
.code-dot-green{background:#27c93f}
.code-filename{font-family:var(--font-mono);font-size:0.8rem;color:var(--color-textMuted)}
.code-tabs{display:flex;gap:0.25rem;height:100%}
.code-tab{background:none;border:none;border-bottom:2px solid transparent;padding:0 0.75rem;font-family:var(--font-mono);font-size:0.8rem;color:var(--color-textDim);cursor:pointer}
.code-tab:hover{color:var(--color-text)}
.code-tab.is-active{color:var(--color-text);border-bottom-color:var(--color-primary)}
.code-scroll{overflow:auto;position:relative}
.code-pre{margin:0;padding:24px;font-family:var(--font-mono);font-size:14px;line-height:20px;min-height:100%;white-space:pre}
.code-line{display:block;min-height:20px;transition:opacity 0.3s ease}
.code-line.dimmed{opacity:0.5}
.code-line.focused{opacity:1}
.code-empty{color:var(--color-textDim)}
.tok{display:inline-block;white-space:pre}
`
}

// The panel height matches the layout model used to plan focus scrolls.
func cssScrolly() string {
	return `
.scrolly{padding:4rem 0}
.scrolly-grid{display:grid;gap:3rem}
.scrolly-steps{display:flex;flex-direction:column}
.scrolly-step{min-height:70vh;display:flex;flex-direction:column;justify-content:center;padding:2rem 0;opacity:0.4;transition:opacity 0.3s ease}
.scrolly-step.is-active{opacity:1}
.scrolly-step h2{font-size:1.5rem;margin-bottom:1rem}
.scrolly-description p{margin-bottom:1rem;white-space:pre-line}
.scrolly-ref{background:var(--color-surfaceAlt);border:1px solid var(--color-borderLight);border-radius:0.25rem;padding:0 0.375rem;font-family:var(--font-mono);font-size:0.85em;color:var(--color-accent);cursor:pointer}
.scrolly-ref:hover{border-color:var(--color-accent)}
.scrolly-code{position:sticky;top:6rem;align-self:start}
.scrolly-code .code-scroll{height:600px}
`
}

func cssSections() string {
	return `
.features-list{display:grid;gap:1rem;margin-top:2.5rem}
.feature-item{padding:1.25rem;border-radius:0.75rem;background:var(--color-surface);border:1px solid var(--color-border)}
.feature-item h3{margin-bottom:0.375rem}
.example-windows{display:grid;gap:1.5rem;margin-top:2.5rem}
.example-windows .code-scroll{max-height:28rem}
.interlude{padding:6rem 0}
.cta{padding:6rem 0}
.cta-form{display:flex;flex-wrap:wrap;gap:0.75rem;justify-content:center;margin:2rem auto 1rem;max-width:28rem}
.cta-form input{flex:1 1 14rem;min-height:2.75rem;padding:0 1rem;border-radius:0.5rem;border:1px solid var(--color-borderLight);background:var(--color-surface)}
.site-footer{border-top:1px solid var(--color-border);padding:3rem 0;font-size:0.875rem}
.footer-columns{display:grid;grid-template-columns:repeat(2,1fr);gap:2rem;margin-bottom:2.5rem}
.footer-columns h4{font-size:0.875rem;margin-bottom:0.75rem}
.footer-columns li{margin-bottom:0.5rem;color:var(--color-textMuted)}
.footer-columns a:hover{color:var(--color-text)}
.footer-bottom{display:flex;flex-wrap:wrap;justify-content:space-between;gap:1rem;color:var(--color-textDim);border-top:1px solid var(--color-border);padding-top:1.5rem}
.footer-bottom nav{display:flex;gap:1.5rem}
`
}

func cssDocs() string {
	return `
.docs-layout{display:grid;gap:2rem;padding:2rem 0 4rem}
.docs-sidebar{font-size:0.875rem}
.docs-sidebar li{margin:0.125rem 0}
.docs-sidebar a{display:block;padding:0.375rem 0.75rem;border-radius:0.375rem;color:var(--color-textMuted)}
.docs-sidebar a:hover{color:var(--color-text);background:var(--color-surface)}
.docs-sidebar a.active{color:var(--color-accent);background:var(--color-surfaceAlt);font-weight:600}
.docs-sidebar ul ul{padding-left:0.75rem;border-left:1px solid var(--color-border);margin-left:0.75rem}
.docs-sidebar .collapsed>ul{display:none}
.docs-content{min-width:0;max-width:48rem}
.docs-content h1{font-size:2.25rem;margin-bottom:1.5rem}
.docs-content h2{font-size:1.5rem;margin:2.5rem 0 1rem;padding-bottom:0.5rem;border-bottom:1px solid var(--color-border)}
.docs-content h3{margin:2rem 0 0.75rem}
.docs-content p,.docs-content ul,.docs-content ol,.docs-content table{margin-bottom:1rem}
.docs-content ul{list-style:disc;padding-left:1.5rem;color:var(--color-textMuted)}
.docs-content ol{list-style:decimal;padding-left:1.5rem;color:var(--color-textMuted)}
.docs-content a{color:var(--color-accent);text-decoration:underline;text-underline-offset:3px}
.docs-content pre{padding:1rem 1.25rem;border-radius:0.5rem;overflow-x:auto;margin-bottom:1.25rem;font-size:0.875rem;line-height:1.6}
.docs-content :not(pre)>code{background:var(--color-surfaceAlt);padding:0.125rem 0.375rem;border-radius:0.25rem}
.docs-content table{border-collapse:collapse;width:100%;font-size:0.875rem}
.docs-content th,.docs-content td{border:1px solid var(--color-border);padding:0.5rem 0.75rem;text-align:left}
.docs-edit{display:inline-block;margin-top:3rem;font-size:0.875rem;color:var(--color-textMuted)}
.docs-edit:hover{color:var(--color-text)}
`
}

func cssAnimations() string {
	return `
@keyframes fadeIn{from{opacity:0;transform:translateY(12px)}to{opacity:1;transform:none}}
.animate-fade-in{animation:fadeIn 0.6s ease forwards}
@media(prefers-reduced-motion:reduce){*{animation-duration:0.01ms!important;transition-duration:0.01ms!important}}
`
}

func cssAccessibility() string {
	return `
.sr-only{position:absolute;width:1px;height:1px;padding:0;margin:-1px;overflow:hidden;clip:rect(0,0,0,0);white-space:nowrap;border:0}
.skip-link{position:absolute;top:-40px;left:0;background:var(--color-primary);color:#fff;padding:0.5rem 1rem;z-index:100;transition:top 0.3s}
.skip-link:focus{top:0}
:focus-visible{outline:2px solid var(--color-accent);outline-offset:2px}
`
}

func cssResponsive() string {
	return `
@media(min-width:768px){
.features-list{grid-template-columns:repeat(2,1fr)}
.footer-columns{grid-template-columns:repeat(4,1fr)}
.docs-layout{grid-template-columns:16rem 1fr}
.docs-sidebar{position:sticky;top:5rem;align-self:start;max-height:calc(100vh - 6rem);overflow-y:auto}
}
@media(min-width:` + Breakpoint + `){
.lg-only{display:block}
.mobile-only{display:none}
.hero-grid{grid-template-columns:3fr 2fr}
.scrolly-tabbed .scrolly-grid{grid-template-columns:2fr 3fr}
.scrolly-single .scrolly-grid{grid-template-columns:3fr 2fr}
.example-windows{grid-template-columns:repeat(2,1fr)}
}
`
}
