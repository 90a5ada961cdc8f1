package markdown

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// minWidth keeps deeply nested content readable on narrow terminals.
const minWidth = 10

type writer struct {
	styles styles
	src    []byte
	out    strings.Builder
}

// blocks renders the block children of n. Every output line is prefixed
// with prefix, which carries list and quote indentation and counts
// against width.
func (w *writer) blocks(n ast.Node, width int, prefix string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.block(c, width, prefix)
		if c.NextSibling() != nil {
			w.out.WriteString(strings.TrimRight(prefix, " ") + "\n")
		}
	}
}

func (w *writer) block(n ast.Node, width int, prefix string) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrapped(w.inline(n), width, prefix, prefix)
	case *ast.Heading:
		w.wrapped(w.styles.heading.Render(w.inline(n)), width, prefix, prefix)
	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.src)); lang != "" {
			w.line(prefix, w.styles.muted.Render(lang))
		}
		w.code(n, prefix)
	case *ast.CodeBlock:
		w.code(n, prefix)
	case *ast.Blockquote:
		w.blocks(n, width, prefix+w.styles.muted.Render(">")+" ")
	case *ast.List:
		w.list(n, width, prefix)
	case *ast.ThematicBreak:
		w.line(prefix, w.styles.muted.Render(strings.Repeat("-", max(3, min(width, 40)))))
	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			w.line(prefix, strings.TrimRight(string(seg.Value(w.src)), "\n"))
		}
	default:
		w.blocks(n, width, prefix)
	}
}

func (w *writer) code(n ast.Node, prefix string) {
	gutter := w.styles.muted.Render("│") + " "
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		w.line(prefix, gutter+w.styles.code.Render(strings.TrimRight(string(seg.Value(w.src)), "\n")))
	}
}

func (w *writer) list(n *ast.List, width int, prefix string) {
	num := n.Start
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if n.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		pad := strings.Repeat(" ", len(marker))
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				lead := prefix + pad
				if first {
					lead = prefix + marker
				}
				w.wrapped(w.inline(c), width, lead, prefix+pad)
			default:
				if first {
					w.line(prefix, marker)
				}
				w.block(c, width, prefix+pad)
			}
			first = false
		}
	}
}

// wrapped reflows s to fit width after indentation and writes it, using
// lead for the first line and rest for continuation lines.
func (w *writer) wrapped(s string, width int, lead, rest string) {
	width = max(width-lipgloss.Width(rest), minWidth)
	body := lipgloss.NewStyle().Width(width).Render(s)
	for i, l := range strings.Split(body, "\n") {
		if i == 0 {
			w.line(lead, l)
		} else {
			w.line(rest, l)
		}
	}
}

func (w *writer) line(prefix, s string) {
	w.out.WriteString(strings.TrimRight(prefix+s, " "))
	w.out.WriteByte('\n')
}

func (w *writer) inline(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &b)
	}
	return b.String()
}

func (w *writer) span(n ast.Node, b *strings.Builder) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		// ***x*** arrives as nested emphasis nodes.
		if n.Level == 1 {
			b.WriteString(w.styles.em.Render(w.inline(n)))
		} else {
			b.WriteString(w.styles.strong.Render(w.inline(n)))
		}
	case *east.Strikethrough:
		b.WriteString(w.styles.strike.Render(w.inline(n)))
	case *ast.CodeSpan:
		var code strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				code.Write(t.Segment.Value(w.src))
			}
		}
		b.WriteString(w.styles.code.Render(code.String()))
	case *ast.Link:
		b.WriteString(w.styles.link.Render(w.inline(n)))
		b.WriteString(" " + w.styles.muted.Render("("+string(n.Destination)+")"))
	case *ast.Image:
		b.WriteString(w.styles.link.Render(w.inline(n)))
		b.WriteString(" " + w.styles.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(w.styles.link.Render(string(n.URL(w.src))))
	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, b)
		}
	}
}
