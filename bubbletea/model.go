package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/parse"
	"github.com/rivo/uniseg"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model of one editing session.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	send   SendFunc
	apply  ApplyFunc
	title  string
	theme  builder.Theme
	styles Styles

	blocks     []MessageBlock
	blockFocus int // index of focused artifact block (-1 = none)

	// pending holds the artifacts of the last turn until they are applied
	// or a new turn starts.
	pending []*ArtifactBlock

	previewDown bool

	running bool
	cancel  context.CancelFunc
	blockCh chan builder.ContentBlock
	doneCh  chan TurnDoneMsg
	err     error
	ready   bool
	height  int
}

// Option configures a [Model].
type Option func(*Model)

// WithHistory renders a previous conversation. Artifacts of a trailing
// assistant message are offered for apply again.
func WithHistory(msgs []builder.ChatMessage) Option {
	return func(m *Model) {
		for _, msg := range msgs {
			switch msg.Role {
			case builder.RoleUser:
				m.blocks = append(m.blocks, NewUserMessageBlock(msg.Content, m.styles))
				m.pending = nil
			case builder.RoleAssistant:
				m.pending = nil
				for _, b := range parse.Parse(msg.Content) {
					m.addBlock(b)
				}
			}
		}
	}
}

// WithTitle sets the name of the edited entity shown in the status line.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// New creates a Model driving send and apply.
func New(send SendFunc, apply ApplyFunc, theme builder.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Describe a change..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:      ti,
		send:       send,
		apply:      apply,
		theme:      theme,
		styles:     NewStyles(theme),
		blockFocus: -1,
	}
	for _, o := range opts {
		o(&m)
	}
	m = m.updateBlockFocus()
	return m
}

// Running returns whether a turn or an apply is in progress.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Pending returns the number of artifacts waiting to be applied.
func (m Model) Pending() int { return len(m.pending) }

// PreviewAvailable reports whether the preview surface was last seen up.
func (m Model) PreviewAvailable() bool { return !m.previewDown }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m.layout(msg.Width), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case BlockMsg:
		m.addBlock(msg.Block)
		m = m.updateBlockFocus()
		m = m.refresh()
		if m.blockCh != nil {
			return m, listenForBlock(m.blockCh, m.doneCh)
		}
		return m, nil

	case TurnDoneMsg:
		return m.finishTurn(msg)

	case AppliedMsg:
		return m.finishApply(msg)

	case PreviewStatusMsg:
		m.previewDown = !msg.Available
		if m.ready {
			m = m.layout(m.Viewport.Width)
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	if m.previewDown {
		b.WriteString(m.styles.Banner.Width(m.Viewport.Width).Render(" Preview unavailable: changes are still saved"))
		b.WriteString("\n")
	}
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) layout(width int) Model {
	const inputHeight, statusHeight, separators = 1, 1, 2
	vpHeight := m.height - inputHeight - statusHeight - separators
	if m.previewDown {
		vpHeight--
	}
	vpHeight = max(vpHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = width
	return m.refresh()
}

func (m Model) refresh() Model {
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyCtrlA:
		if m.running || len(m.pending) == 0 {
			return m, nil
		}
		return m.startApply()

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
		}
		return m, nil
	}

	// Input is locked while a turn runs.
	if m.running {
		return m, nil
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.Input.Blur()
	m.err = nil
	m.pending = nil
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m = m.refresh()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.blockCh = make(chan builder.ContentBlock, 64)
	m.doneCh = make(chan TurnDoneMsg, 1)
	m.running = true

	return m, tea.Batch(
		startTurn(ctx, m.send, text, m.blockCh, m.doneCh),
		listenForBlock(m.blockCh, m.doneCh),
	)
}

func (m Model) finishTurn(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil
	m.blockCh = nil
	m.doneCh = nil

	resolved := make([]bool, len(m.pending))
	for _, r := range msg.Turn.Resolutions {
		for i, a := range m.pending {
			if !resolved[i] && a.Path() == r.Block.FilePath {
				a.Resolve(r)
				resolved[i] = true
				break
			}
		}
	}
	for i, a := range m.pending {
		if !resolved[i] {
			a.Unresolved()
		}
	}
	if msg.Turn.StopReason == builder.StopLength {
		m.blocks = append(m.blocks, NewWarningBlock("The reply was cut off at the token limit.", m.styles))
	}
	if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
		m.err = msg.Err
		m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
	}
	m = m.updateBlockFocus()
	m = m.refresh()
	return m, m.Input.Focus()
}

func (m Model) startApply() (tea.Model, tea.Cmd) {
	m.running = true
	m.err = nil
	m.Input.Blur()
	apply := m.apply
	return m, func() tea.Msg {
		applied, errs := apply(context.Background())
		return AppliedMsg{Applied: applied, Errs: errs}
	}
}

func (m Model) finishApply(msg AppliedMsg) (tea.Model, tea.Cmd) {
	m.running = false
	done := make([]bool, len(m.pending))
	for _, a := range msg.Applied {
		for i, p := range m.pending {
			if !done[i] && p.Path() == a.Resolution.Block.FilePath {
				p.Apply(a)
				done[i] = true
				break
			}
		}
	}
	if len(msg.Applied) > 0 {
		m.blocks = append(m.blocks, NewSuccessBlock(fmt.Sprintf("Applied %d of %d changes.", len(msg.Applied), len(m.pending)), m.styles))
	}
	for _, err := range msg.Errs {
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
	}
	if len(msg.Errs) > 0 {
		m.err = errors.Join(msg.Errs...)
	}
	// A busy session keeps the turn pending so it can be applied later.
	if !(len(msg.Errs) == 1 && errors.Is(msg.Errs[0], builder.ErrBusy)) {
		m.pending = nil
	}
	m = m.refresh()
	return m, m.Input.Focus()
}

func (m *Model) addBlock(b builder.ContentBlock) {
	switch b := b.(type) {
	case builder.TextBlock:
		m.blocks = append(m.blocks, NewTextBlock(b.Text, m.theme))
	case builder.CodeBlock:
		a := NewArtifactBlock(b, m.styles)
		m.blocks = append(m.blocks, a)
		m.pending = append(m.pending, a)
	}
}

func (m Model) renderContent() string {
	views := make([]string, 0, len(m.blocks))
	for i, block := range m.blocks {
		v := block.View(m.Viewport.Width)
		if i == m.blockFocus {
			v = m.styles.Accent.Render("›") + v
		}
		views = append(views, v)
	}
	return strings.Join(views, "\n\n")
}

// updateBlockFocus focuses the last artifact block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*ArtifactBlock); ok {
			m.blockFocus = i
			break
		}
	}
	return m
}

// cycleFocusPrev moves focus to the previous artifact block, wrapping
// around.
func (m Model) cycleFocusPrev() Model {
	n := len(m.blocks)
	start := m.blockFocus - 1
	if start < 0 {
		start = n - 1
	}
	for i := range n {
		idx := (start - i + n) % n
		if _, ok := m.blocks[idx].(*ArtifactBlock); ok {
			m.blockFocus = idx
			m.Viewport.SetContent(m.renderContent())
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.running {
		return m.styles.Muted.Render("Generating...")
	}
	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.title + " · ")
	}
	b.WriteString("Enter to send")
	if n := len(m.pending); n > 0 {
		b.WriteString(fmt.Sprintf(", Ctrl+A to apply %d change", n))
		if n > 1 {
			b.WriteString("s")
		}
	}
	b.WriteString(", Tab to expand, Ctrl+C to quit")
	return m.styles.Muted.Render(clip(b.String(), m.Viewport.Width))
}

// clip cuts s to at most width cells without splitting a grapheme cluster.
func clip(s string, width int) string {
	if width <= 0 || uniseg.StringWidth(s) <= width {
		return s
	}
	var (
		out   strings.Builder
		cells int
		state = -1
	)
	for len(s) > 0 {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		if cells+w > width-1 {
			break
		}
		out.WriteString(cluster)
		cells += w
	}
	return out.String() + "…"
}

// startTurn runs send in the command goroutine, forwarding blocks to
// blockCh, and reports the result on doneCh.
func startTurn(ctx context.Context, send SendFunc, text string, blockCh chan<- builder.ContentBlock, doneCh chan<- TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		turn, err := send(ctx, text, func(b builder.ContentBlock) {
			select {
			case blockCh <- b:
			case <-ctx.Done():
			}
		})
		close(blockCh)
		doneCh <- TurnDoneMsg{Turn: turn, Err: err}
		return nil
	}
}

// listenForBlock waits for the next block. When the channel closes it
// returns the turn result from doneCh.
func listenForBlock(ch <-chan builder.ContentBlock, doneCh <-chan TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		b, ok := <-ch
		if !ok {
			return <-doneCh
		}
		return BlockMsg{Block: b}
	}
}
