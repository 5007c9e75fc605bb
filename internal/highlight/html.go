package highlight

import (
	"fmt"
	"html"
	"strings"
)

// LineID returns the element id of a rendered line (0-based index).
func LineID(prefix string, line int) string {
	return fmt.Sprintf("%s-l%d", prefix, line)
}

// TokenID returns the element id of a rendered token.
func TokenID(prefix string, line, token int) string {
	return fmt.Sprintf("%s-t%d-%d", prefix, line, token)
}

// WriteHTML renders code as a <pre> block. Lines carry data-line and
// data-focus attributes; when the code has focus annotations, unfocused lines
// are dimmed. Element ids are derived from prefix so that geometry can be
// addressed per token.
func WriteHTML(sb *strings.Builder, code *Code, prefix string) {
	if code == nil {
		return
	}
	dim := code.HasFocus()

	sb.WriteString(`<pre class="code-pre" data-theme="`)
	sb.WriteString(html.EscapeString(code.Theme))
	sb.WriteString(`" style="`)
	if code.Background != "" {
		sb.WriteString("background:")
		sb.WriteString(code.Background)
		sb.WriteString(";")
	}
	if code.Foreground != "" {
		sb.WriteString("color:")
		sb.WriteString(code.Foreground)
		sb.WriteString(";")
	}
	sb.WriteString(`"><code data-lang="`)
	sb.WriteString(html.EscapeString(code.Lang))
	sb.WriteString(`">`)

	for i, line := range code.Lines {
		class := "code-line"
		if line.Focus {
			class += " focused"
		} else if dim {
			class += " dimmed"
		}
		fmt.Fprintf(sb, `<div class="%s" id="%s" data-line="%d"`, class, LineID(prefix, i), line.Number)
		if line.Focus {
			sb.WriteString(` data-focus="true"`)
		}
		sb.WriteString(">")

		if len(line.Tokens) == 0 {
			sb.WriteString("\n")
		}
		for j, tok := range line.Tokens {
			fmt.Fprintf(sb, `<span class="tok" id="%s"`, TokenID(prefix, i, j))
			if style := tokenStyle(tok); style != "" {
				sb.WriteString(` style="`)
				sb.WriteString(style)
				sb.WriteString(`"`)
			}
			sb.WriteString(">")
			sb.WriteString(html.EscapeString(tok.Text))
			sb.WriteString("</span>")
		}
		sb.WriteString("</div>")
	}

	sb.WriteString("</code></pre>")
}

// HTML is a convenience wrapper around WriteHTML.
func HTML(code *Code, prefix string) string {
	var sb strings.Builder
	WriteHTML(&sb, code, prefix)
	return sb.String()
}

func tokenStyle(t Token) string {
	var parts []string
	if t.Color != "" {
		parts = append(parts, "color:"+t.Color)
	}
	if t.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if t.Italic {
		parts = append(parts, "font-style:italic")
	}
	return strings.Join(parts, ";")
}
