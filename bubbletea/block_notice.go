package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*NoticeBlock)(nil)

// NoticeBlock renders a one-line status message such as an error or an
// apply summary.
type NoticeBlock struct {
	text  string
	style lipgloss.Style
}

// NewErrorBlock creates a notice for err.
func NewErrorBlock(err error, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: "Error: " + err.Error(), style: styles.Error}
}

// NewWarningBlock creates a warning notice.
func NewWarningBlock(text string, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: text, style: styles.Warning}
}

// NewSuccessBlock creates a success notice.
func NewSuccessBlock(text string, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: text, style: styles.Success}
}

func (b *NoticeBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *NoticeBlock) View(width int) string {
	return lipgloss.NewStyle().Width(width).Render(b.style.Render(b.text))
}
