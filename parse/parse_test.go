package parse_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/mock"
	"github.com/fwojciec/builder/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fence = "```"

func TestParse_TextAndCodeInOrder(t *testing.T) {
	t.Parallel()
	input := "Here is the button:\n" +
		fence + "tsx:src/components/Button.tsx\n" +
		"export default function Button() {\n  return <button>Hi</button>;\n}\n" +
		fence + "\n" +
		"And a page uses it."

	blocks := parse.Parse(input)

	require.Len(t, blocks, 3)
	assert.Equal(t, builder.TextBlock{Text: "Here is the button:"}, blocks[0])
	assert.Equal(t, builder.CodeBlock{
		FilePath: "src/components/Button.tsx",
		Language: "tsx",
		Content:  "export default function Button() {\n  return <button>Hi</button>;\n}",
	}, blocks[1])
	assert.Equal(t, builder.TextBlock{Text: "And a page uses it."}, blocks[2])
}

func TestParse_InterleavedBlocksKeepOrder(t *testing.T) {
	t.Parallel()
	input := "one\n" +
		fence + "tsx:src/components/A.tsx\na\n" + fence + "\n" +
		"two\n\n" +
		fence + "tsx:src/components/B.tsx\nb\n" + fence + "\n\n" +
		fence + "css:src/app/globals.css\nc\n" + fence + "\n" +
		"three"

	blocks := parse.Parse(input)

	require.Len(t, blocks, 6)
	assert.Equal(t, builder.TextBlock{Text: "one"}, blocks[0])
	assert.Equal(t, "src/components/A.tsx", blocks[1].(builder.CodeBlock).FilePath)
	assert.Equal(t, builder.TextBlock{Text: "two"}, blocks[2])
	assert.Equal(t, "src/components/B.tsx", blocks[3].(builder.CodeBlock).FilePath)
	assert.Equal(t, "src/app/globals.css", blocks[4].(builder.CodeBlock).FilePath)
	assert.Equal(t, builder.TextBlock{Text: "three"}, blocks[5])
}

func TestParse_PathlessFenceIsDemotedToText(t *testing.T) {
	t.Parallel()
	input := "Run this:\n" + fence + "bash\nnpm install\n" + fence + "\nDone."

	blocks := parse.Parse(input)

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.TextBlock{Text: "Run this:\n" + fence + "bash\nnpm install\n" + fence + "\nDone."}, blocks[0])
}

func TestParse_AwaitingPathResolvedByFirstLine(t *testing.T) {
	t.Parallel()

	t.Run("comment", func(t *testing.T) {
		t.Parallel()
		blocks := parse.Parse(fence + "tsx\n// src/components/Card.tsx\nexport const Card = () => null;\n" + fence)
		require.Len(t, blocks, 1)
		assert.Equal(t, builder.CodeBlock{
			FilePath: "src/components/Card.tsx",
			Language: "tsx",
			Content:  "export const Card = () => null;",
		}, blocks[0])
	})

	t.Run("file label", func(t *testing.T) {
		t.Parallel()
		blocks := parse.Parse(fence + "css\n/* file: src/styles/theme.css */\nbody {}\n" + fence)
		require.Len(t, blocks, 1)
		assert.Equal(t, "src/styles/theme.css", blocks[0].(builder.CodeBlock).FilePath)
		assert.Equal(t, "body {}", blocks[0].(builder.CodeBlock).Content)
	})

	t.Run("language tag before path", func(t *testing.T) {
		t.Parallel()
		blocks := parse.Parse(fence + "\ntsx\nsrc/components/Tag.tsx\nexport const Tag = 1;\n" + fence)
		require.Len(t, blocks, 1)
		assert.Equal(t, builder.CodeBlock{
			FilePath: "src/components/Tag.tsx",
			Language: "tsx",
			Content:  "export const Tag = 1;",
		}, blocks[0])
	})
}

func TestParse_NarrationSuppliesPath(t *testing.T) {
	t.Parallel()
	input := "File: `src/app/about/page.tsx`\n" + fence + "tsx\nexport default function AboutPage() {}\n" + fence

	blocks := parse.Parse(input)

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.CodeBlock{
		FilePath: "src/app/about/page.tsx",
		Language: "tsx",
		Content:  "export default function AboutPage() {}",
	}, blocks[0])
}

func TestParse_StripsNoise(t *testing.T) {
	t.Parallel()
	input := fence + "typescript:src/components/Nav.tsx\n" +
		"typescript\n" +
		"// src/components/Nav.tsx\n" +
		"export function Nav() {}\n\n" +
		fence + "\n" +
		"file: src/components/Nav.tsx\n" +
		"Next."

	blocks := parse.Parse(input)

	require.Len(t, blocks, 2)
	assert.Equal(t, builder.CodeBlock{
		FilePath: "src/components/Nav.tsx",
		Language: "typescript",
		Content:  "export function Nav() {}",
	}, blocks[0])
	assert.Equal(t, builder.TextBlock{Text: "Next."}, blocks[1])
}

func TestParse_InfoStringForms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		info     string
		wantPath string
		wantLang string
	}{
		{"lang colon path", "tsx:src/components/A.tsx", "src/components/A.tsx", "tsx"},
		{"lang space path", "tsx src/components/B.tsx", "src/components/B.tsx", "tsx"},
		{"attribute", `jsx title="src/components/C.jsx"`, "src/components/C.jsx", "jsx"},
		{"bare path", "./src/styles/globals.css", "src/styles/globals.css", "css"},
		{"kind hint", "component:Button.tsx", "Button.tsx", "component"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			blocks := parse.Parse(fence + tt.info + "\nbody\n" + fence)
			require.Len(t, blocks, 1)
			cb, ok := blocks[0].(builder.CodeBlock)
			require.True(t, ok)
			assert.Equal(t, tt.wantPath, cb.FilePath)
			assert.Equal(t, tt.wantLang, cb.Language)
			assert.Equal(t, "body", cb.Content)
		})
	}
}

func TestParse_LongerFenceContainsShorter(t *testing.T) {
	t.Parallel()
	input := "````md:docs/README.md\n" + fence + "js\nx\n" + fence + "\n````"

	blocks := parse.Parse(input)

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.CodeBlock{
		FilePath: "docs/README.md",
		Language: "md",
		Content:  fence + "js\nx\n" + fence,
	}, blocks[0])
}

func TestParse_UnterminatedFenceIsEmittedAtEnd(t *testing.T) {
	t.Parallel()
	blocks := parse.Parse("Partial:\n" + fence + "tsx:src/components/A.tsx\nexport const A = 1;")

	require.Len(t, blocks, 2)
	assert.Equal(t, builder.TextBlock{Text: "Partial:"}, blocks[0])
	assert.Equal(t, "export const A = 1;", blocks[1].(builder.CodeBlock).Content)
}

func TestParser_CoalescesStreamedText(t *testing.T) {
	t.Parallel()
	p := parse.NewParser()

	var blocks []builder.ContentBlock
	blocks = append(blocks, p.Feed(builder.EventTextDelta{Delta: "Hel"})...)
	blocks = append(blocks, p.Feed(builder.EventTextDelta{Delta: "lo\nwor"})...)
	blocks = append(blocks, p.Feed(builder.EventTextDelta{Delta: "ld\n"})...)
	assert.Empty(t, blocks, "text is held until a boundary")

	blocks = append(blocks, p.Feed(builder.EventDone{StopReason: builder.StopEndTurn})...)

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.TextBlock{Text: "Hello\nworld"}, blocks[0])
}

func TestParser_FenceSplitAcrossDeltas(t *testing.T) {
	t.Parallel()
	p := parse.NewParser()
	deltas := []string{"Intro\n``", "`tsx:src/comp", "onents/X.tsx\nexport const X", " = 1;\n`", "``\nOutro"}

	var blocks []builder.ContentBlock
	for _, d := range deltas {
		blocks = append(blocks, p.Feed(builder.EventTextDelta{Delta: d})...)
	}
	blocks = append(blocks, p.Flush()...)

	require.Len(t, blocks, 3)
	assert.Equal(t, builder.TextBlock{Text: "Intro"}, blocks[0])
	assert.Equal(t, builder.CodeBlock{FilePath: "src/components/X.tsx", Language: "tsx", Content: "export const X = 1;"}, blocks[1])
	assert.Equal(t, builder.TextBlock{Text: "Outro"}, blocks[2])
}

func TestParser_StructuredArtifact(t *testing.T) {
	t.Parallel()
	p := parse.NewParser()

	var blocks []builder.ContentBlock
	blocks = append(blocks, p.Feed(builder.EventTextDelta{Delta: "Creating it now."})...)
	blocks = append(blocks, p.Feed(builder.EventArtifactStart{ID: "a1", Language: "tsx", FileName: "src/components/Button.tsx"})...)
	blocks = append(blocks, p.Feed(builder.EventArtifactDelta{ID: "a1", Delta: "tsx\nexport default"})...)
	blocks = append(blocks, p.Feed(builder.EventArtifactStop{
		ID:       "a1",
		Language: "tsx",
		FileName: "src/components/Button.tsx",
		Content:  "tsx\nexport default function Button() {}\n",
	})...)
	blocks = append(blocks, p.Feed(builder.EventDone{})...)

	require.Len(t, blocks, 2)
	assert.Equal(t, builder.TextBlock{Text: "Creating it now."}, blocks[0])
	assert.Equal(t, builder.CodeBlock{
		FilePath: "src/components/Button.tsx",
		Language: "tsx",
		Content:  "export default function Button() {}",
	}, blocks[1])
}

func TestParser_ArtifactWrappedInFence(t *testing.T) {
	t.Parallel()
	p := parse.NewParser()

	blocks := p.Feed(builder.EventArtifactStop{
		ID:      "a1",
		Content: fence + "tsx:src/app/page.tsx\nexport default function Home() {}\n" + fence + "\n",
	})

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.CodeBlock{
		FilePath: "src/app/page.tsx",
		Language: "tsx",
		Content:  "export default function Home() {}",
	}, blocks[0])
}

func TestParser_ArtifactWithoutFileNameIsText(t *testing.T) {
	t.Parallel()
	p := parse.NewParser()

	blocks := p.Feed(builder.EventArtifactStop{ID: "a1", Content: "just some notes"})
	assert.Empty(t, blocks)

	blocks = p.Flush()
	require.Len(t, blocks, 1)
	assert.Equal(t, builder.TextBlock{Text: "just some notes"}, blocks[0])
}

func TestParser_AbortDiscardsPartialCode(t *testing.T) {
	t.Parallel()
	p := parse.NewParser()
	p.Feed(builder.EventTextDelta{Delta: "Intro\n" + fence + "tsx:src/components/X.tsx\nconst X"})

	blocks := p.Abort()

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.TextBlock{Text: "Intro"}, blocks[0])
	assert.Empty(t, p.Flush())
}

func TestBlocks_YieldsLazilyInOrder(t *testing.T) {
	t.Parallel()
	s := mock.Events(nil,
		builder.EventTextDelta{Delta: "Intro\n" + fence + "tsx:src/components/A.tsx\n"},
		builder.EventTextDelta{Delta: "a\n" + fence + "\nOutro"},
		builder.EventDone{StopReason: builder.StopEndTurn},
	)

	var blocks []builder.ContentBlock
	for b, err := range parse.Blocks(s) {
		require.NoError(t, err)
		blocks = append(blocks, b)
	}

	require.Len(t, blocks, 3)
	assert.Equal(t, builder.TextBlock{Text: "Intro"}, blocks[0])
	assert.Equal(t, builder.CodeBlock{FilePath: "src/components/A.tsx", Language: "tsx", Content: "a"}, blocks[1])
	assert.Equal(t, builder.TextBlock{Text: "Outro"}, blocks[2])
}

func TestBlocks_StreamErrorDropsOpenArtifact(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	s := mock.Events(boom,
		builder.EventTextDelta{Delta: "Intro\n" + fence + "tsx:src/components/X.tsx\nconst X"},
	)

	var blocks []builder.ContentBlock
	var gotErr error
	for b, err := range parse.Blocks(s) {
		if err != nil {
			gotErr = err
			continue
		}
		blocks = append(blocks, b)
	}

	assert.ErrorIs(t, gotErr, boom)
	require.Len(t, blocks, 1)
	assert.Equal(t, builder.TextBlock{Text: "Intro"}, blocks[0])
}

func TestBlocks_StopsWhenConsumerBreaks(t *testing.T) {
	t.Parallel()
	s := mock.Events(nil,
		builder.EventTextDelta{Delta: fence + "tsx:src/components/A.tsx\na\n" + fence + "\n"},
		builder.EventTextDelta{Delta: fence + "tsx:src/components/B.tsx\nb\n" + fence + "\n"},
		builder.EventDone{},
	)

	n := 0
	for range parse.Blocks(s) {
		n++
		break
	}

	assert.Equal(t, 1, n)
	assert.Equal(t, builder.StreamStateStreaming, s.State())
}

func TestParse_SanitizesStreamedText(t *testing.T) {
	t.Parallel()
	blocks := parse.Parse("\x1b[1mBold\x1b[0m text\r\n")
	require.Len(t, blocks, 1)
	assert.Equal(t, builder.TextBlock{Text: "Bold text"}, blocks[0])
}

func TestParse_BareMarkerLine(t *testing.T) {
	t.Parallel()

	t.Run("ends at file line", func(t *testing.T) {
		t.Parallel()
		input := "Here you go.\n" +
			"typescript:src/components/Button.tsx\n" +
			"export default function Button() {\n  return <button />;\n}\n" +
			"file: done\n" +
			"Bye"

		blocks := parse.Parse(input)

		require.Len(t, blocks, 3)
		assert.Equal(t, builder.TextBlock{Text: "Here you go."}, blocks[0])
		assert.Equal(t, builder.CodeBlock{
			FilePath: "src/components/Button.tsx",
			Language: "typescript",
			Content:  "export default function Button() {\n  return <button />;\n}",
		}, blocks[1])
		assert.Equal(t, builder.TextBlock{Text: "file: done\nBye"}, blocks[2])
	})

	t.Run("next marker starts a new block", func(t *testing.T) {
		t.Parallel()
		input := "typescript:src/components/A.tsx\na\n" +
			"typescript:src/app/page.tsx\nb"

		blocks := parse.Parse(input)

		require.Len(t, blocks, 2)
		assert.Equal(t, builder.CodeBlock{FilePath: "src/components/A.tsx", Language: "typescript", Content: "a"}, blocks[0])
		assert.Equal(t, builder.CodeBlock{FilePath: "src/app/page.tsx", Language: "typescript", Content: "b"}, blocks[1])
	})

	t.Run("fence after marker", func(t *testing.T) {
		t.Parallel()
		input := "`tsx:src/components/Card.tsx`\n" + fence + "tsx\nexport const Card = 1;\n" + fence + "\nDone."

		blocks := parse.Parse(input)

		require.Len(t, blocks, 2)
		assert.Equal(t, builder.CodeBlock{FilePath: "src/components/Card.tsx", Language: "tsx", Content: "export const Card = 1;"}, blocks[0])
		assert.Equal(t, builder.TextBlock{Text: "Done."}, blocks[1])
	})

	t.Run("restating file line is dropped", func(t *testing.T) {
		t.Parallel()
		input := "typescript:src/components/Nav.tsx\nexport function Nav() {}\nfile: src/components/Nav.tsx\nNext."

		blocks := parse.Parse(input)

		require.Len(t, blocks, 2)
		assert.Equal(t, "src/components/Nav.tsx", blocks[0].(builder.CodeBlock).FilePath)
		assert.Equal(t, builder.TextBlock{Text: "Next."}, blocks[1])
	})

	t.Run("prose with a colon is not a marker", func(t *testing.T) {
		t.Parallel()
		blocks := parse.Parse("Note: see README.md for details")

		require.Len(t, blocks, 1)
		assert.IsType(t, builder.TextBlock{}, blocks[0])
	})
}

func TestParser_BareMarkerAcrossDeltas(t *testing.T) {
	t.Parallel()
	p := parse.NewParser()

	var blocks []builder.ContentBlock
	for _, d := range []string{"typescript:src/comp", "onents/A.tsx\nexport const A", " = 1;\nfile: src/components/A.tsx\n"} {
		blocks = append(blocks, p.Feed(builder.EventTextDelta{Delta: d})...)
	}

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.CodeBlock{FilePath: "src/components/A.tsx", Language: "typescript", Content: "export const A = 1;"}, blocks[0])
	assert.Empty(t, p.Flush())
}

func TestParse_EmptyCodeBlockIsDropped(t *testing.T) {
	t.Parallel()

	t.Run("unterminated", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, parse.Parse(fence+"tsx:src/app/page.tsx"))
	})

	t.Run("only noise", func(t *testing.T) {
		t.Parallel()
		blocks := parse.Parse("Intro\n" + fence + "tsx:src/app/page.tsx\ntsx\n\n" + fence)

		require.Len(t, blocks, 1)
		assert.Equal(t, builder.TextBlock{Text: "Intro"}, blocks[0])
	})
}

func TestParse_RepeatedOpenerIsStripped(t *testing.T) {
	t.Parallel()

	blocks := parse.Parse(fence + "tsx:src/components/A.tsx\n" + fence + "tsx\nconst a = 1\n" + fence)

	require.Len(t, blocks, 1)
	assert.Equal(t, builder.CodeBlock{FilePath: "src/components/A.tsx", Language: "tsx", Content: "const a = 1"}, blocks[0])
}
