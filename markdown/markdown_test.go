package markdown_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/markdown"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

var csi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func plain(s string) string {
	return csi.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Styled output is only distinguishable with a color profile.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := builder.DefaultTheme()
	render := func(src string, width int) string {
		return plain(markdown.Render(src, width, theme))
	}

	t.Run("blank input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", markdown.Render("", 80, theme))
		assert.Equal(t, "", markdown.Render(" \n\n", 80, theme))
	})

	t.Run("paragraph", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "I added a Button component.", render("I added a Button component.", 80))
	})

	t.Run("heading is styled", func(t *testing.T) {
		t.Parallel()
		heading := markdown.Render("# Changes", 80, theme)
		para := markdown.Render("Changes", 80, theme)
		assert.Equal(t, "Changes", plain(heading))
		assert.NotEqual(t, heading, para)
	})

	t.Run("inline styles keep their text", func(t *testing.T) {
		t.Parallel()
		got := render("Use **bold**, *italic*, ~~old~~ and `code`.", 80)
		assert.Equal(t, "Use bold, italic, old and code.", got)
	})

	t.Run("nested emphasis", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "bold italic", render("***bold italic***", 80))
	})

	t.Run("blocks are separated by a blank line", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "first\n\nsecond", render("first\n\nsecond", 80))
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		got := render("word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12", 30)
		lines := strings.Split(got, "\n")
		assert.Greater(t, len(lines), 1)
		for _, l := range lines {
			assert.LessOrEqual(t, len(l), 30)
		}
		assert.Contains(t, got, "word12")
	})

	t.Run("non-positive width uses default", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello world", render("hello world", 0))
	})

	t.Run("fenced code keeps lines and shows language", func(t *testing.T) {
		t.Parallel()
		got := render("```tsx\nconst x = <div className=\"a b c d e f\" />;\n```", 20)
		assert.Equal(t, "tsx\n│ const x = <div className=\"a b c d e f\" />;", got)
	})

	t.Run("indented code", func(t *testing.T) {
		t.Parallel()
		got := render("intro\n\n    npm install\n    npm run dev", 80)
		assert.Equal(t, "intro\n\n│ npm install\n│ npm run dev", got)
	})

	t.Run("bullet list", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "- one\n- two\n- three", render("- one\n- two\n- three", 80))
	})

	t.Run("ordered list keeps start number", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "3. third\n4. fourth", render("3. third\n4. fourth", 80))
	})

	t.Run("nested list", func(t *testing.T) {
		t.Parallel()
		got := render("- outer\n  - inner one\n  - inner two", 80)
		assert.Equal(t, "- outer\n  - inner one\n  - inner two", got)
	})

	t.Run("list continuation lines are indented", func(t *testing.T) {
		t.Parallel()
		got := render("- this is a very long list item that should wrap onto indented continuation lines", 30)
		lines := strings.Split(got, "\n")
		assert.True(t, strings.HasPrefix(lines[0], "- "))
		assert.Greater(t, len(lines), 1)
		for _, l := range lines[1:] {
			assert.True(t, strings.HasPrefix(l, "  "), "continuation line %q", l)
		}
	})

	t.Run("blockquote", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "> quoted text", render("> quoted text", 80))
	})

	t.Run("links show destination", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "docs (https://nextjs.org)", render("[docs](https://nextjs.org)", 80))
		assert.Equal(t, "logo (/logo.png)", render("![logo](/logo.png)", 80))
	})

	t.Run("thematic break", func(t *testing.T) {
		t.Parallel()
		got := render("above\n\n---\n\nbelow", 80)
		assert.Contains(t, got, "above\n\n---")
		assert.Contains(t, got, "\n\nbelow")
	})
}
