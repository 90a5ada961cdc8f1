package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/markdown"
)

var _ MessageBlock = (*TextBlock)(nil)

// TextBlock renders the prose of an assistant reply as markdown. The
// rendering is cached per width.
type TextBlock struct {
	text    string
	theme   builder.Theme
	byWidth map[int]string
}

// NewTextBlock creates a TextBlock.
func NewTextBlock(text string, theme builder.Theme) *TextBlock {
	return &TextBlock{text: text, theme: theme, byWidth: make(map[int]string)}
}

func (b *TextBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *TextBlock) View(width int) string {
	if out, ok := b.byWidth[width]; ok {
		return out
	}
	out := markdown.Render(b.text, width, b.theme)
	b.byWidth[width] = out
	return out
}
