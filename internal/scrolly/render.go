package scrolly

import (
	"fmt"
	"html"
	"strings"

	"github.com/manuschillerdev/doklab-site/internal/highlight"
)

// Variant selects the section layout.
type Variant int

const (
	// VariantTabbed puts the steps on the left and a tabbed code window on
	// the right.
	VariantTabbed Variant = iota
	// VariantSingle puts a single-file code window on the left and the steps
	// on the right.
	VariantSingle
)

// SectionOptions controls how a presenter section is rendered.
type SectionOptions struct {
	Variant Variant
	// Class is appended to the section's class list.
	Class string
}

// Class names shared with the client script.
const (
	ActiveClass = "is-active"
	StepClass   = "scrolly-step"
)

// TabsSlot is the slot id of the presenter's tab strip.
func (p *Presenter) TabsSlot() string { return p.id + "-tabs" }

// CodeSlot is the slot id of the presenter's displayed code.
func (p *Presenter) CodeSlot() string { return p.id + "-code-view" }

// StepSelector matches every step region of the presenter.
func (p *Presenter) StepSelector() string {
	return fmt.Sprintf("#%s .%s", p.id, StepClass)
}

// RenderSection writes the presenter's section: the step regions observed by
// the client and the sticky code window. Only the tab strip and the code are
// live slots; step highlighting is applied with client commands.
func RenderSection(sb *strings.Builder, p *Presenter, opts SectionOptions) {
	class := "scrolly"
	if opts.Variant == VariantSingle {
		class += " scrolly-single"
	} else {
		class += " scrolly-tabbed"
	}
	if opts.Class != "" {
		class += " " + opts.Class
	}

	fmt.Fprintf(sb, `<section class="%s" id="%s" data-presenter="%s">`,
		html.EscapeString(class), html.EscapeString(p.id), html.EscapeString(p.id))
	sb.WriteString(`<div class="container"><div class="scrolly-grid">`)

	if opts.Variant == VariantSingle {
		renderWindow(sb, p, opts.Variant)
		renderSteps(sb, p)
	} else {
		renderSteps(sb, p)
		renderWindow(sb, p, opts.Variant)
	}

	sb.WriteString(`</div></div></section>`)
}

func renderSteps(sb *strings.Builder, p *Presenter) {
	sb.WriteString(`<div class="scrolly-steps">`)
	for i, step := range p.catalog.Steps() {
		region := p.RegionID(i)
		class := StepClass
		active := p.state != StateIdle && i == p.active
		if active {
			class += " " + ActiveClass
		}
		fmt.Fprintf(sb, `<div class="%s" id="%s" data-region="%s" data-step="%d"`, class, region, region, i)
		if active {
			sb.WriteString(` aria-current="step"`)
		}
		sb.WriteString(`><div class="scrolly-step-body"><h2>`)
		sb.WriteString(html.EscapeString(step.Title))
		sb.WriteString(`</h2><div class="scrolly-description">`)
		RenderDescription(sb, p.id, step.Description)
		sb.WriteString(`</div></div></div>`)
	}
	sb.WriteString(`</div>`)
}

// RenderDescription writes a step description as paragraphs. Tab references
// become buttons that select the tab.
func RenderDescription(sb *strings.Builder, presenter, description string) {
	for _, para := range Paragraphs(description) {
		sb.WriteString("<p>")
		for _, seg := range ParseDescription(para) {
			if !seg.Ref {
				sb.WriteString(html.EscapeString(seg.Text))
				continue
			}
			name := html.EscapeString(seg.Text)
			fmt.Fprintf(sb, `<button type="button" class="scrolly-ref" data-presenter="%s" data-tab="%s">%s</button>`,
				html.EscapeString(presenter), name, name)
		}
		sb.WriteString("</p>")
	}
}

func renderWindow(sb *strings.Builder, p *Presenter, v Variant) {
	sb.WriteString(`<div class="scrolly-code"><div class="code-window">`)
	sb.WriteString(`<div class="code-header">`)
	sb.WriteString(`<div class="code-dots"><span class="code-dot code-dot-red"></span><span class="code-dot code-dot-yellow"></span><span class="code-dot code-dot-green"></span></div>`)
	fmt.Fprintf(sb, `<div class="code-tabs" role="tablist" data-slot="%s">`, p.TabsSlot())
	RenderTabs(sb, p, v)
	sb.WriteString(`</div></div>`)

	fmt.Fprintf(sb, `<div class="code-scroll" id="%s" data-panel="%s">`, p.PanelID(), html.EscapeString(p.id))
	fmt.Fprintf(sb, `<div class="code-view" data-slot="%s">`, p.CodeSlot())
	RenderCode(sb, p)
	sb.WriteString(`</div></div></div></div>`)
}

// RenderTabs writes the tab strip. The single-file variant shows the file
// name as a label.
func RenderTabs(sb *strings.Builder, p *Presenter, v Variant) {
	names := make([]string, 0, len(p.tabs))
	for _, t := range p.tabs {
		names = append(names, t.Name)
	}
	if len(names) == 0 {
		if step, ok := p.catalog.Step(p.active); ok {
			names = step.TabNames()
		}
	}

	if v == VariantSingle {
		label := p.activeTab
		if label == "" && len(names) > 0 {
			label = names[0]
		}
		fmt.Fprintf(sb, `<span class="code-filename">%s</span>`, html.EscapeString(label))
		return
	}

	for _, name := range names {
		selected := name == p.activeTab
		class := "code-tab"
		if selected {
			class += " " + ActiveClass
		}
		escaped := html.EscapeString(name)
		fmt.Fprintf(sb, `<button type="button" role="tab" class="%s" data-presenter="%s" data-tab="%s" aria-selected="%t">%s</button>`,
			class, html.EscapeString(p.id), escaped, selected, escaped)
	}
}

// RenderCode writes the highlighted code of the selected tab, or an empty
// block when nothing has been highlighted yet.
func RenderCode(sb *strings.Builder, p *Presenter) {
	code := p.ActiveCode()
	if code == nil {
		sb.WriteString(`<pre class="code-pre code-empty"><code></code></pre>`)
		return
	}
	highlight.WriteHTML(sb, code, p.CodePrefix())
}
