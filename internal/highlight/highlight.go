// Package highlight turns raw snippet text into token-level annotated code
// using chroma, honouring "!focus" comment annotations.
package highlight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultTheme is the chroma style used when none is configured.
const DefaultTheme = "dracula"

// Common highlight errors.
var (
	ErrUnknownTheme = errors.New("unknown theme")
	ErrPanic        = errors.New("highlighter panicked")
)

// Snippet is the input of a highlight computation.
type Snippet struct {
	Value string
	Lang  string
}

// Token is a styled run of text within one line.
type Token struct {
	Text   string
	Type   string
	Column int // rune offset within the line
	Color  string
	Bold   bool
	Italic bool
}

// Line is one rendered line of code.
type Line struct {
	Number int // 1-based
	Tokens []Token
	Focus  bool
}

// Width returns the line length in runes.
func (l Line) Width() int {
	n := 0
	for _, t := range l.Tokens {
		n += utf8.RuneCountInString(t.Text)
	}
	return n
}

// Code is the annotated token structure produced by a Highlighter.
type Code struct {
	Lang       string
	Theme      string
	Foreground string
	Background string
	Lines      []Line
}

// HasFocus reports whether any line carries a focus annotation.
func (c *Code) HasFocus() bool {
	for _, l := range c.Lines {
		if l.Focus {
			return true
		}
	}
	return false
}

// FocusedLines returns the 0-based indexes of focused lines.
func (c *Code) FocusedLines() []int {
	var out []int
	for i, l := range c.Lines {
		if l.Focus {
			out = append(out, i)
		}
	}
	return out
}

// Text reassembles the code without annotations.
func (c *Code) Text() string {
	var sb strings.Builder
	for i, l := range c.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, t := range l.Tokens {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// Highlighter transforms snippets into annotated code.
type Highlighter interface {
	Highlight(ctx context.Context, snippet Snippet, theme string) (*Code, error)
}

// HighlighterFunc adapts a function to the Highlighter interface.
type HighlighterFunc func(ctx context.Context, snippet Snippet, theme string) (*Code, error)

func (f HighlighterFunc) Highlight(ctx context.Context, snippet Snippet, theme string) (*Code, error) {
	return f(ctx, snippet, theme)
}

// Chroma is the chroma-backed Highlighter.
type Chroma struct{}

// NewChroma creates a chroma highlighter.
func NewChroma() *Chroma {
	return &Chroma{}
}

// HasTheme reports whether chroma knows the style name.
func HasTheme(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

// Highlight implements Highlighter.
func (c *Chroma) Highlight(ctx context.Context, snippet Snippet, theme string) (code *Code, err error) {
	defer func() {
		if r := recover(); r != nil {
			code = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if theme == "" {
		theme = DefaultTheme
	}
	style, ok := styles.Registry[theme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, theme)
	}

	lines, focus := StripAnnotations(snippet.Value)

	lexer := lexers.Get(snippet.Lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("tokenise %s: %w", snippet.Lang, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bg := style.Get(chroma.Background)
	code = &Code{
		Lang:       snippet.Lang,
		Theme:      theme,
		Foreground: colour(bg.Colour),
		Background: colour(bg.Background),
		Lines:      make([]Line, 0, len(lines)),
	}

	for i, tokens := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		if i >= len(lines) {
			break
		}
		line := Line{Number: i + 1, Focus: focus[i]}
		col := 0
		for _, tok := range tokens {
			text := strings.TrimRight(tok.Value, "\n")
			if text == "" {
				continue
			}
			entry := style.Get(tok.Type)
			line.Tokens = append(line.Tokens, Token{
				Text:   text,
				Type:   tok.Type.String(),
				Column: col,
				Color:  colour(entry.Colour),
				Bold:   entry.Bold == chroma.Yes,
				Italic: entry.Italic == chroma.Yes,
			})
			col += utf8.RuneCountInString(text)
		}
		code.Lines = append(code.Lines, line)
	}

	// SplitTokensIntoLines drops trailing empty lines; keep the line count
	// aligned with the source so focus ranges stay addressable.
	for len(code.Lines) < len(lines) {
		n := len(code.Lines)
		code.Lines = append(code.Lines, Line{Number: n + 1, Focus: focus[n]})
	}

	return code, nil
}

func colour(c chroma.Colour) string {
	if !c.IsSet() {
		return ""
	}
	return c.String()
}
