package docs

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v3"
)

// ErrFrontMatter is returned for an unterminated or malformed front matter
// block.
var ErrFrontMatter = errors.New("invalid front matter")

// FrontMatter is the YAML header of a page.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Order       int    `yaml:"order"`
	Description string `yaml:"description"`
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// markdown body.
func splitFrontMatter(src []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter

	src = bytes.TrimPrefix(src, []byte("\ufeff"))
	if !bytes.HasPrefix(src, []byte("---\n")) && !bytes.HasPrefix(src, []byte("---\r\n")) {
		return fm, src, nil
	}

	rest := src[bytes.IndexByte(src, '\n')+1:]
	end := -1
	offset := 0
	for _, line := range bytes.SplitAfter(rest, []byte("\n")) {
		if string(bytes.TrimRight(line, "\r\n")) == "---" {
			end = offset
			offset += len(line)
			break
		}
		offset += len(line)
	}
	if end < 0 {
		return fm, nil, fmt.Errorf("%w: missing closing delimiter", ErrFrontMatter)
	}

	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, nil, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	return fm, rest[offset:], nil
}

// extractTitle returns the text of the first level one heading.
func extractTitle(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// newMarkdown configures goldmark with GitHub flavoured markdown, chroma
// highlighting in theme and base path aware links.
func newMarkdown(theme string, href func(string) string) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(theme),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&linkTransformer{href: href}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// linkTransformer rewrites site-absolute link and image destinations so
// they resolve below the base path.
type linkTransformer struct {
	href func(string) string
}

func (t *linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	if t.href == nil {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			node.Destination = []byte(t.href(string(node.Destination)))
		case *ast.Image:
			node.Destination = []byte(t.href(string(node.Destination)))
		}
		return ast.WalkContinue, nil
	})
}
