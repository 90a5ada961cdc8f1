// Package markdown renders the prose of assistant replies as ANSI-styled
// terminal text. Parsing is done by goldmark and styling by lipgloss.
package markdown

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/builder"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// DefaultWidth is used when Render is called with a non-positive width.
const DefaultWidth = 80

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// Render parses source and returns styled text wrapped to width.
// Paragraphs, quotes and list items are reflowed; code is printed as is
// behind a gutter.
func Render(source string, width int, theme builder.Theme) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext()))

	w := &writer{styles: newStyles(theme), src: src}
	w.blocks(doc, width, "")
	return strings.TrimRight(w.out.String(), "\n")
}

type styles struct {
	heading lipgloss.Style
	strong  lipgloss.Style
	em      lipgloss.Style
	strike  lipgloss.Style
	code    lipgloss.Style
	link    lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(theme builder.Theme) styles {
	return styles{
		heading: lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		strong:  lipgloss.NewStyle().Bold(true),
		em:      lipgloss.NewStyle().Italic(true),
		strike:  lipgloss.NewStyle().Strikethrough(true),
		code:    lipgloss.NewStyle().Foreground(color(theme.Artifact)),
		link:    lipgloss.NewStyle().Underline(true),
		muted:   lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
	}
}

// color maps an ANSI palette index to a lipgloss color. Negative indexes
// leave the terminal default.
func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
