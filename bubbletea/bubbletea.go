// Package bubbletea provides a Bubble Tea chat front-end for editing one
// page or component with the AI collaborator.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/chat"
)

// SendFunc runs one chat turn. onBlock is called for every block as soon
// as the parser completes it. The function blocks until the turn ends or
// ctx is canceled.
type SendFunc func(ctx context.Context, text string, onBlock func(builder.ContentBlock)) (chat.Turn, error)

// ApplyFunc writes the artifacts of the last turn to the project.
type ApplyFunc func(ctx context.Context) ([]builder.Applied, []error)

// SessionFuncs adapts a chat session to the functions the model drives.
func SessionFuncs(s *chat.Session) (SendFunc, ApplyFunc) {
	send := func(ctx context.Context, text string, onBlock func(builder.ContentBlock)) (chat.Turn, error) {
		return s.Send(ctx, text, chat.WithBlockHandler(onBlock))
	}
	return send, s.Apply
}

// Run creates and runs the Bubble Tea program. It blocks until the
// program exits. Preview availability changes read from status are shown
// as a banner; status may be nil. Canceling ctx quits the program.
func Run(ctx context.Context, m Model, status <-chan bool) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if status != nil {
		go func() {
			for ok := range status {
				p.Send(PreviewStatusMsg{Available: ok})
			}
		}()
	}
	_, err := p.Run()
	return err
}

// BlockMsg delivers one parsed block of the running turn.
type BlockMsg struct {
	Block builder.ContentBlock
}

// TurnDoneMsg signals that the running turn has ended.
type TurnDoneMsg struct {
	Turn chat.Turn
	Err  error
}

// AppliedMsg carries the outcome of an apply.
type AppliedMsg struct {
	Applied []builder.Applied
	Errs    []error
}

// PreviewStatusMsg reports whether the preview surface is reachable.
type PreviewStatusMsg struct {
	Available bool
}
