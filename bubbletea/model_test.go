package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/builder"
	bt "github.com/fwojciec/builder/bubbletea"
	"github.com/fwojciec/builder/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopSend(context.Context, string, func(builder.ContentBlock)) (chat.Turn, error) {
	return chat.Turn{}, nil
}

func nopApply(context.Context) ([]builder.Applied, []error) {
	return nil, nil
}

func initModel(t *testing.T, send bt.SendFunc, apply bt.ApplyFunc, opts ...bt.Option) bt.Model {
	t.Helper()
	m := bt.New(send, apply, builder.DefaultTheme(), opts...)
	return updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func resolution(kind builder.Kind, action builder.Action, name string) builder.Resolution {
	return builder.Resolution{Block: button, Kind: kind, Action: action, Name: name}
}

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(nopSend, nopApply, builder.DefaultTheme())
	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Zero(t, m.Pending())
	assert.True(t, m.PreviewAvailable())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size sizes the viewport", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 20, m.Viewport.Height)

		m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
		assert.Equal(t, 120, m.Viewport.Width)
		assert.Equal(t, 36, m.Viewport.Height)
	})

	t.Run("ctrl+c when idle quits", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("enter with empty input does nothing", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, updated.(bt.Model).Running())
		assert.Nil(t, cmd)
	})

	t.Run("input is locked while a turn runs", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m.Input.SetValue("make a button")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		require.NotNil(t, cmd)
		assert.True(t, m.Running())
		assert.Empty(t, m.Input.Value())
		assert.Contains(t, m.View(), "> make a button")
		assert.Contains(t, m.View(), "Generating...")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("more")})
		assert.Empty(t, m.Input.Value())

		m = updateModel(t, m, bt.BlockMsg{Block: button})
		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
		assert.Nil(t, cmd)
	})

	t.Run("ctrl+c while running cancels the turn", func(t *testing.T) {
		t.Parallel()

		canceled := make(chan struct{})
		send := func(ctx context.Context, _ string, _ func(builder.ContentBlock)) (chat.Turn, error) {
			<-ctx.Done()
			close(canceled)
			return chat.Turn{}, ctx.Err()
		}
		m := initModel(t, send, nopApply)
		m.Input.SetValue("hi")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)

		submitCmd := cmd
		go func() {
			for _, c := range submitCmd().(tea.BatchMsg) {
				go c()
			}
		}()
		updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		assert.Nil(t, cmd)
		select {
		case <-canceled:
		case <-time.After(5 * time.Second):
			t.Fatal("turn was not canceled")
		}

		m = updateModel(t, updated.(bt.Model), bt.TurnDoneMsg{Err: context.Canceled})
		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
	})

	t.Run("blocks render as they arrive", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m = updateModel(t, m, bt.BlockMsg{Block: builder.TextBlock{Text: "Here is the **button**."}})
		m = updateModel(t, m, bt.BlockMsg{Block: button})

		content := bt.RenderContent(m)
		assert.Contains(t, content, "Here is the button.")
		assert.Contains(t, content, "src/components/Button.tsx")
		assert.Equal(t, 1, m.Pending())
	})

	t.Run("turn result resolves artifacts", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		other := builder.CodeBlock{FilePath: "notes.txt", Content: "x"}
		m = updateModel(t, m, bt.BlockMsg{Block: button})
		m = updateModel(t, m, bt.BlockMsg{Block: other})
		m = updateModel(t, m, bt.TurnDoneMsg{Turn: chat.Turn{
			Resolutions: []builder.Resolution{resolution(builder.KindComponent, builder.ActionCreate, "Button")},
			Unresolved:  []error{builder.ErrUnresolved},
		}})

		content := bt.RenderContent(m)
		assert.Contains(t, content, "component Button · src/components/Button.tsx (create)")
		assert.Contains(t, content, "notes.txt (unresolved)")
		assert.Contains(t, m.View(), "Ctrl+A to apply 2 changes")
		assert.False(t, m.Running())
	})

	t.Run("truncated reply is flagged", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m = updateModel(t, m, bt.TurnDoneMsg{Turn: chat.Turn{StopReason: builder.StopLength}})
		assert.Contains(t, bt.RenderContent(m), "cut off at the token limit")
	})

	t.Run("turn error is shown", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m = updateModel(t, m, bt.TurnDoneMsg{Err: errors.New("rate limited")})
		require.Error(t, m.Err())
		assert.Contains(t, m.View(), "Error: rate limited")
	})

	t.Run("ctrl+a applies pending artifacts", func(t *testing.T) {
		t.Parallel()

		var calls int
		apply := func(context.Context) ([]builder.Applied, []error) {
			calls++
			return []builder.Applied{{Resolution: resolution(builder.KindComponent, builder.ActionCreate, "Button")}}, nil
		}
		m := initModel(t, nopSend, apply)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
		assert.Nil(t, cmd, "nothing to apply")

		m = updateModel(t, m, bt.BlockMsg{Block: button})
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
		m = updated.(bt.Model)
		require.NotNil(t, cmd)
		assert.True(t, m.Running())

		msg := cmd()
		m = updateModel(t, m, msg)
		assert.Equal(t, 1, calls)
		assert.False(t, m.Running())
		assert.Zero(t, m.Pending())
		content := bt.RenderContent(m)
		assert.Contains(t, content, "(applied)")
		assert.Contains(t, content, "Applied 1 of 1 changes.")
	})

	t.Run("apply errors are listed", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m = updateModel(t, m, bt.BlockMsg{Block: button})
		m = updateModel(t, m, bt.AppliedMsg{Errs: []error{errors.New("disk full")}})
		assert.Contains(t, bt.RenderContent(m), "Error: disk full")
		require.Error(t, m.Err())
		assert.Zero(t, m.Pending())
	})

	t.Run("busy apply keeps artifacts pending", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m = updateModel(t, m, bt.BlockMsg{Block: button})
		m = updateModel(t, m, bt.AppliedMsg{Errs: []error{builder.ErrBusy}})
		assert.Equal(t, 1, m.Pending())
	})

	t.Run("preview status toggles the banner", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m = updateModel(t, m, bt.PreviewStatusMsg{Available: false})
		assert.False(t, m.PreviewAvailable())
		assert.Contains(t, m.View(), "Preview unavailable")
		assert.Equal(t, 19, m.Viewport.Height)

		m = updateModel(t, m, bt.PreviewStatusMsg{Available: true})
		assert.NotContains(t, m.View(), "Preview unavailable")
		assert.Equal(t, 20, m.Viewport.Height)
	})

	t.Run("tab expands the focused artifact", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend, nopApply)
		m = updateModel(t, m, bt.BlockMsg{Block: button})
		assert.NotContains(t, bt.RenderContent(m), "<button>Hi</button>")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.Contains(t, bt.RenderContent(m), "<button>Hi</button>")
	})
}

func TestModel_History(t *testing.T) {
	t.Parallel()

	history := []builder.ChatMessage{
		{Role: builder.RoleUser, Content: "make a card"},
		{Role: builder.RoleAssistant, Content: "Done.\n\n```tsx:src/components/Card.tsx\nexport default function Card() {\n  return <div />;\n}\n```"},
		{Role: builder.RoleUser, Content: "make a button"},
		{Role: builder.RoleAssistant, Content: "Sure.\n\n```tsx:src/components/Button.tsx\nexport default function Button() {\n  return <button />;\n}\n```"},
	}
	m := initModel(t, nopSend, nopApply, bt.WithHistory(history), bt.WithTitle("Home"))

	content := bt.RenderContent(m)
	assert.Contains(t, content, "> make a card")
	assert.Contains(t, content, "src/components/Card.tsx")
	assert.Contains(t, content, "> make a button")
	assert.Contains(t, content, "src/components/Button.tsx")
	assert.Equal(t, 1, m.Pending())
	assert.Contains(t, m.View(), "Home · Enter to send, Ctrl+A to apply 1 change,")
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	send := func(_ context.Context, text string, onBlock func(builder.ContentBlock)) (chat.Turn, error) {
		onBlock(builder.TextBlock{Text: "Added a button for " + text + "."})
		onBlock(button)
		return chat.Turn{
			Resolutions: []builder.Resolution{resolution(builder.KindComponent, builder.ActionCreate, "Button")},
			StopReason:  builder.StopEndTurn,
		}, nil
	}
	apply := func(context.Context) ([]builder.Applied, []error) {
		return []builder.Applied{{Resolution: resolution(builder.KindComponent, builder.ActionCreate, "Button")}}, nil
	}
	m := bt.New(send, apply, builder.DefaultTheme())
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Type("checkout")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Added a button for checkout.")) &&
			bytes.Contains(out, []byte("(create)"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlA})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Applied 1 of 1 changes."))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(bt.Model)
	require.True(t, ok)
	assert.False(t, final.Running())
	assert.NoError(t, final.Err())
	assert.Zero(t, final.Pending())
}

func TestClip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", bt.Clip("short", 10))
	assert.Equal(t, "abcd…", bt.Clip("abcdefgh", 5))
	// Wide runes take two cells and are never split.
	assert.Equal(t, "日本…", bt.Clip("日本語テキスト", 6))
	assert.Equal(t, "👍🏽…", bt.Clip("👍🏽👍🏽👍🏽", 4))
}
