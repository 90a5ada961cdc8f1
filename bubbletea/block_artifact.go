package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/builder"
	"github.com/mattn/go-runewidth"
)

var _ MessageBlock = (*ArtifactBlock)(nil)

type artifactState int

const (
	artifactParsed artifactState = iota
	artifactResolved
	artifactUnresolved
	artifactApplied
	artifactSkipped
)

// ArtifactBlock renders one code block of a reply: a header naming its
// target and, when expanded, the code itself. Artifacts start collapsed.
type ArtifactBlock struct {
	code      builder.CodeBlock
	res       builder.Resolution
	state     artifactState
	collapsed bool
	styles    Styles
}

// NewArtifactBlock creates an ArtifactBlock for a parsed code block.
func NewArtifactBlock(code builder.CodeBlock, styles Styles) *ArtifactBlock {
	return &ArtifactBlock{code: code, collapsed: true, styles: styles}
}

// Path returns the target file path of the artifact.
func (b *ArtifactBlock) Path() string { return b.code.FilePath }

// Resolve records how the artifact maps onto the project.
func (b *ArtifactBlock) Resolve(r builder.Resolution) {
	b.res = r
	b.state = artifactResolved
}

// Unresolved marks an artifact that matched no classification rule.
func (b *ArtifactBlock) Unresolved() {
	b.state = artifactUnresolved
}

// Apply records the outcome of writing the artifact.
func (b *ArtifactBlock) Apply(a builder.Applied) {
	b.res = a.Resolution
	if a.Skipped {
		b.state = artifactSkipped
		return
	}
	b.state = artifactApplied
}

func (b *ArtifactBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *ArtifactBlock) View(width int) string {
	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	// Headers never wrap; a long path is cut with an ellipsis.
	header := runewidth.Truncate(indicator+" "+b.label(), width, "…")

	var out strings.Builder
	out.WriteString(b.styles.Artifact.Render(header))
	if status := b.status(); status != "" && runewidth.StringWidth(header)+len(status)+1 <= width {
		out.WriteString(" " + b.statusStyle().Render(status))
	}
	for _, w := range b.res.Warnings {
		out.WriteString("\n" + b.styles.Warning.Render(runewidth.Truncate("  ! "+w, width, "…")))
	}
	if b.collapsed {
		return out.String()
	}
	gutter := b.styles.Muted.Render("│") + " "
	for line := range strings.Lines(b.code.Content) {
		line = strings.TrimRight(line, "\n")
		out.WriteString("\n" + gutter + runewidth.Truncate(line, max(width-2, 1), "…"))
	}
	return out.String()
}

func (b *ArtifactBlock) label() string {
	switch b.state {
	case artifactParsed, artifactUnresolved:
		return b.code.FilePath
	}
	var target string
	switch b.res.Kind {
	case builder.KindPage:
		target = "page " + b.res.Route
	case builder.KindComponent:
		target = "component " + b.res.Name
	default:
		target = string(b.res.Kind)
	}
	return target + " · " + b.code.FilePath
}

func (b *ArtifactBlock) status() string {
	switch b.state {
	case artifactResolved:
		return "(" + string(b.res.Action) + ")"
	case artifactUnresolved:
		return "(unresolved)"
	case artifactApplied:
		return "(applied)"
	case artifactSkipped:
		return "(preview only)"
	}
	return ""
}

func (b *ArtifactBlock) statusStyle() lipgloss.Style {
	switch b.state {
	case artifactUnresolved:
		return b.styles.Warning
	case artifactApplied, artifactSkipped:
		return b.styles.Success
	}
	return b.styles.Muted
}
