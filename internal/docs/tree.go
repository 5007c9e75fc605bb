package docs

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// Node is an entry of the sidebar. A directory node is backed by the
// directory's index page when it has one.
type Node struct {
	Name     string
	Title    string
	Slug     string
	Order    int
	IsDir    bool
	HasPage  bool
	Children []*Node
}

// BuildTree arranges pages by their slug. The root index page is not part
// of the tree.
func BuildTree(pages []*Page) *Node {
	root := &Node{Name: "docs", IsDir: true}

	for _, p := range pages {
		if p.Slug == "" {
			continue
		}
		parts := strings.Split(p.Slug, "/")
		current := root
		for i, part := range parts {
			child := current.child(part)
			if child == nil {
				child = &Node{
					Name:  part,
					Slug:  strings.Join(parts[:i+1], "/"),
					Title: formatDirName(part),
				}
				current.Children = append(current.Children, child)
			}
			current = child
		}
		current.Title = p.Title
		current.Order = p.Order
		current.HasPage = true
		if p.IsIndex {
			current.IsDir = true
		}
	}

	markDirs(root)
	sortTree(root)
	return root
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func markDirs(n *Node) {
	if len(n.Children) > 0 {
		n.IsDir = true
	}
	for _, c := range n.Children {
		markDirs(c)
	}
}

// sortTree orders children by front matter order, then title.
func sortTree(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Title < b.Title
	})
	for _, c := range n.Children {
		sortTree(c)
	}
}

// ToHTML renders the sidebar. Directories at collapseLevel or deeper are
// collapsed unless they contain the active page.
func (n *Node) ToHTML(active string, collapseLevel int, href func(slug string) string, indexTitle string) string {
	ancestors := activeAncestors(active)

	var b strings.Builder
	b.WriteString(`<nav class="docs-sidebar" aria-label="Documentation">` + "\n<ul>\n")
	class := ""
	if active == "" {
		class = ` class="active" aria-current="page"`
	}
	fmt.Fprintf(&b, `<li><a href="%s"%s>%s</a></li>`+"\n", html.EscapeString(href("")), class, html.EscapeString(indexTitle))
	renderChildren(&b, n, 1, active, collapseLevel, ancestors, href)
	b.WriteString("</ul>\n</nav>\n")
	return b.String()
}

func renderChildren(b *strings.Builder, n *Node, depth int, active string, collapseLevel int, ancestors map[string]bool, href func(string) string) {
	for _, c := range n.Children {
		class := ""
		if c.Slug == active {
			class = ` class="active" aria-current="page"`
		}
		label := html.EscapeString(c.Title)

		if !c.IsDir {
			fmt.Fprintf(b, `<li><a href="%s"%s>%s</a></li>`+"\n", html.EscapeString(href(c.Slug)), class, label)
			continue
		}

		state := "expanded"
		if depth >= collapseLevel && !ancestors[c.Slug] && c.Slug != active {
			state = "collapsed"
		}
		fmt.Fprintf(b, `<li class="dir %s">`, state)
		if c.HasPage {
			fmt.Fprintf(b, `<a href="%s"%s>%s</a>`, html.EscapeString(href(c.Slug)), class, label)
		} else {
			fmt.Fprintf(b, `<span>%s</span>`, label)
		}
		b.WriteString("\n<ul>\n")
		renderChildren(b, c, depth+1, active, collapseLevel, ancestors, href)
		b.WriteString("</ul>\n</li>\n")
	}
}

// activeAncestors returns the slugs of the directories above active. For
// "labels/routing" it returns {"labels"}.
func activeAncestors(active string) map[string]bool {
	ancestors := make(map[string]bool)
	parts := strings.Split(active, "/")
	for i := 1; i < len(parts); i++ {
		ancestors[strings.Join(parts[:i], "/")] = true
	}
	return ancestors
}

// formatDirName turns a slug segment into a title: "getting-started"
// becomes "Getting Started".
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
