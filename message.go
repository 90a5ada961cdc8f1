package builder

import "time"

// ContentBlock is a sealed interface representing one parsed unit of an AI
// response: prose or one artifact's code. Blocks are transient and exist
// only within one streaming turn.
// The unexported marker method prevents external implementations.
type ContentBlock interface {
	contentBlock()
}

// TextBlock contains prose.
type TextBlock struct {
	Text string
}

func (TextBlock) contentBlock() {}

// CodeBlock is a file-shaped artifact tagged with its target path.
type CodeBlock struct {
	FilePath string
	Language string
	Content  string
}

func (CodeBlock) contentBlock() {}

// Interface compliance checks.
var (
	_ ContentBlock = TextBlock{}
	_ ContentBlock = CodeBlock{}
)

// ChatMessage is one message of an editing session.
type ChatMessage struct {
	ID         string
	Role       Role
	Content    string
	Timestamp  time.Time
	CodeBlocks []CodeBlock
}

// ChatHistory is the persisted conversation of one page or component
// editing session, keyed by the edited entity's id.
type ChatHistory struct {
	EntityID  string
	Messages  []ChatMessage
	UpdatedAt time.Time
}

// CodeBlocks returns only the code blocks of blocks, in order.
func CodeBlocks(blocks []ContentBlock) []CodeBlock {
	var out []CodeBlock
	for _, b := range blocks {
		if cb, ok := b.(CodeBlock); ok {
			out = append(out, cb)
		}
	}
	return out
}
