package chat

import (
	"fmt"
	"strings"

	"github.com/fwojciec/builder"
)

// SystemPrompt instructs the model to tag every code block with its
// target path and carries the current content of the edited entity.
func SystemPrompt(kind builder.Kind, content string) string {
	if strings.TrimSpace(content) == "" {
		content = "// No content yet"
	}
	return fmt.Sprintf(`You are an expert Next.js developer. When providing code, follow these guidelines:

1. Always use TypeScript.
2. Always wrap code blocks with triple backticks and include the file path after the language, like:
`+"```"+`tsx:src/components/Example.tsx
// code here
`+"```"+`
3. For components:
   - Put each component in src/components/<Name>.tsx with a PascalCase name
   - Include a TypeScript interface named <Name>Props for its props
   - Use functional components and hooks
4. For pages:
   - Use the App Router layout: src/app/<route>/page.tsx
   - Export the page component as the default export

Current %s content:
`+"```"+`tsx
%s
`+"```", kind, content)
}

// formatBlocks renders parsed blocks back into a single response text
// with one fenced block per artifact.
func formatBlocks(blocks []builder.ContentBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		switch blk := block.(type) {
		case builder.TextBlock:
			b.WriteString(blk.Text)
		case builder.CodeBlock:
			lang := blk.Language
			if lang == "" {
				lang = "text"
			}
			fmt.Fprintf(&b, "```%s:%s\n%s\n```", lang, blk.FilePath, blk.Content)
		}
	}
	return b.String()
}
