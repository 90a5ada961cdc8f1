// Package parse converts AI responses into ordered content blocks.
//
// A single line-oriented state machine with three states (in-text,
// awaiting-path, in-code-block) backs two front-ends: a push front-end fed
// normalized stream events ([Parser.Feed], [Blocks]) and a single-shot
// front-end for complete responses ([Parse]). Fenced code blocks whose path
// cannot be resolved are demoted to prose; they are never dropped.
//
// Besides fences, a bare marker line such as "typescript:src/app/page.tsx"
// opens a block that runs to the next "file:" line, the next marker or the
// end of the response.
package parse

import (
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
)

type state int

const (
	inText state = iota
	awaitingPath
	inCodeBlock
)

func (s state) String() string {
	switch s {
	case inText:
		return "in-text"
	case awaitingPath:
		return "awaiting-path"
	case inCodeBlock:
		return "in-code-block"
	default:
		return "unknown"
	}
}

// fence is the fenced code block currently being read from prose.
type fence struct {
	open     string // opening line, kept verbatim for demotion
	marker   string // empty for a block opened by a bare marker line
	language string
	path     string
	body     []string
}

// Option configures a [Parser].
type Option func(*Parser)

// WithLogger sets the logger used to report demoted blocks.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// Parser is the push front-end of the block state machine. It is not safe
// for concurrent use; one Parser serves one response.
type Parser struct {
	state    state
	partial  strings.Builder
	text     []string
	fence    fence
	hint     string // path named by the last narration line
	hintAt   int    // index of that line in text
	lastPath string // path of the last emitted code block
	open     map[string]struct{}
	log      *zap.Logger
}

// NewParser returns a Parser in the in-text state.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		hintAt: -1,
		open:   make(map[string]struct{}),
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Feed consumes one normalized event and returns the blocks it completed,
// in arrival order. EventDone flushes the parser.
func (p *Parser) Feed(evt builder.Event) []builder.ContentBlock {
	switch e := evt.(type) {
	case builder.EventTextDelta:
		return p.write(e.Delta)
	case builder.EventArtifactStart:
		out := p.finishLine()
		out = append(out, p.closeOpen()...)
		p.open[e.ID] = struct{}{}
		return out
	case builder.EventArtifactDelta:
		// Artifact content is taken whole from EventArtifactStop.
		return nil
	case builder.EventArtifactStop:
		if _, ok := p.open[e.ID]; !ok && e.ID != "" {
			p.log.Warn("artifact stop without start", zap.String("id", e.ID))
		}
		delete(p.open, e.ID)
		return p.artifact(e)
	case builder.EventDone:
		return p.Flush()
	default:
		return nil
	}
}

// Flush ends the response. A fence left open by the model is emitted as a
// code block when its path is known, else demoted to prose.
func (p *Parser) Flush() []builder.ContentBlock {
	out := p.finishLine()
	out = append(out, p.closeOpen()...)
	out = append(out, p.emitText()...)
	p.reset()
	return out
}

// Abort discards any partially received code (open fence or structured
// artifact) and returns the pending prose.
func (p *Parser) Abort() []builder.ContentBlock {
	if p.state == inText {
		p.finishLine()
	} else {
		p.log.Debug("discarding partial code block",
			zap.String("state", p.state.String()),
			zap.String("path", p.fence.path))
	}
	out := p.emitText()
	p.reset()
	return out
}

func (p *Parser) reset() {
	p.state = inText
	p.partial.Reset()
	p.text = nil
	p.fence = fence{}
	p.hint, p.hintAt = "", -1
	clear(p.open)
}

// write buffers a text fragment and processes every completed line.
func (p *Parser) write(s string) []builder.ContentBlock {
	p.partial.WriteString(s)
	buf := p.partial.String()
	i := strings.LastIndexByte(buf, '\n')
	if i < 0 {
		return nil
	}
	p.partial.Reset()
	p.partial.WriteString(buf[i+1:])
	var out []builder.ContentBlock
	for _, line := range strings.Split(buf[:i], "\n") {
		out = append(out, p.line(Sanitize(line))...)
	}
	return out
}

// finishLine processes a trailing line that has no newline yet.
func (p *Parser) finishLine() []builder.ContentBlock {
	if p.partial.Len() == 0 {
		return nil
	}
	line := p.partial.String()
	p.partial.Reset()
	return p.line(Sanitize(line))
}

func (p *Parser) line(line string) []builder.ContentBlock {
	switch p.state {
	case inText:
		if lang, path, ok := markerLine(line); ok {
			p.fence = fence{open: line, language: lang, path: path}
			p.state = inCodeBlock
			return nil
		}
		if marker, info, ok := openFence(line); ok {
			lang, path := parseInfo(info)
			if p.hint != "" && (path == "" || path == p.hint) {
				path = p.hint
				p.dropHint()
			}
			p.fence = fence{open: line, marker: marker, language: lang, path: path}
			if path == "" {
				p.state = awaitingPath
			} else {
				p.state = inCodeBlock
			}
			return nil
		}
		p.text = append(p.text, line)
		if path, ok := narrationPath(line); ok {
			if path == p.lastPath {
				// Restatement of the block just emitted.
				p.text = p.text[:len(p.text)-1]
				return nil
			}
			p.hint, p.hintAt = path, len(p.text)-1
		} else if strings.TrimSpace(line) != "" {
			p.hint, p.hintAt = "", -1
		}
		return nil
	case awaitingPath:
		if closesFence(line, p.fence.marker) {
			return p.closeFence(line)
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isLanguageTag(trimmed, p.fence.language) {
			p.fence.body = append(p.fence.body, line)
			return nil
		}
		if path, ok := restatedPath(trimmed); ok {
			p.fence.path = path
			p.fence.body = nil
		} else {
			p.fence.body = append(p.fence.body, line)
		}
		p.state = inCodeBlock
		return nil
	case inCodeBlock:
		if p.fence.marker == "" {
			return p.markedLine(line)
		}
		if closesFence(line, p.fence.marker) {
			return p.closeFence(line)
		}
		p.fence.body = append(p.fence.body, line)
		return nil
	}
	return nil
}

// markedLine handles a line inside a block opened by a bare marker. A fence
// right after the marker takes over the block; a "file:" line or another
// marker ends it and is handled as prose.
func (p *Parser) markedLine(line string) []builder.ContentBlock {
	if len(trimBlank(p.fence.body)) == 0 {
		if marker, info, ok := openFence(line); ok {
			if lang, _ := parseInfo(info); lang != "" && p.fence.language == "" {
				p.fence.language = lang
			}
			p.fence.open, p.fence.marker, p.fence.body = line, marker, nil
			return nil
		}
	}
	_, _, marker := markerLine(line)
	if !marker && !endsMarkedBlock(line) {
		p.fence.body = append(p.fence.body, line)
		return nil
	}
	out := p.closeFence("")
	return append(out, p.line(line)...)
}

// dropHint removes the narration line that supplied the pending path hint.
func (p *Parser) dropHint() {
	if p.hintAt >= 0 && p.hintAt < len(p.text) {
		p.text = append(p.text[:p.hintAt], p.text[p.hintAt+1:]...)
	}
	p.hint, p.hintAt = "", -1
}

// closeFence finishes the current fence. A pathless fence is demoted to
// prose verbatim, including its markers.
func (p *Parser) closeFence(closing string) []builder.ContentBlock {
	f := p.fence
	p.fence = fence{}
	p.state = inText
	if f.path == "" {
		p.demote(f, closing)
		return nil
	}
	return p.emitCode(f.path, f.language, f.body)
}

// closeOpen finishes a fence the model never closed.
func (p *Parser) closeOpen() []builder.ContentBlock {
	if p.state == inText {
		return nil
	}
	return p.closeFence("")
}

func (p *Parser) demote(f fence, closing string) {
	p.log.Debug("code block has no path, keeping as text", zap.String("language", f.language))
	p.text = append(p.text, f.open)
	p.text = append(p.text, f.body...)
	if closing != "" {
		p.text = append(p.text, closing)
	}
	p.hint, p.hintAt = "", -1
}

// emitCode emits pending prose and the code block. A block with no code
// left after cleanup is dropped: applying it would blank the target.
func (p *Parser) emitCode(path, lang string, body []string) []builder.ContentBlock {
	if lang == "" {
		lang = languageFor(path)
	}
	body = cleanBody(body, lang, path)
	if len(body) == 0 {
		p.log.Debug("dropping empty code block", zap.String("path", path))
		return nil
	}
	out := p.emitText()
	out = append(out, builder.CodeBlock{
		FilePath: path,
		Language: lang,
		Content:  strings.Join(body, "\n"),
	})
	p.lastPath = path
	return out
}

// emitText coalesces pending prose into one block.
func (p *Parser) emitText() []builder.ContentBlock {
	text := strings.TrimSpace(strings.Join(p.text, "\n"))
	p.text = nil
	p.hint, p.hintAt = "", -1
	if text == "" {
		return nil
	}
	return []builder.ContentBlock{builder.TextBlock{Text: text}}
}

// artifact converts a structured artifact into a code block, applying the
// same noise stripping as fenced prose. Artifacts without a resolvable
// path are demoted to prose.
func (p *Parser) artifact(e builder.EventArtifactStop) []builder.ContentBlock {
	lines := strings.Split(Sanitize(e.Content), "\n")
	lang, path := e.Language, strings.TrimSpace(e.FileName)
	if inner, info, ok := unwrapFence(lines); ok {
		lines = inner
		fl, fp := parseInfo(info)
		if lang == "" {
			lang = fl
		}
		if path == "" {
			path = fp
		}
	}
	if path == "" {
		for i, l := range lines {
			t := strings.TrimSpace(l)
			if t == "" || isLanguageTag(t, lang) {
				continue
			}
			if rp, ok := restatedPath(t); ok {
				path = rp
				lines = lines[i+1:]
			}
			break
		}
	}
	if path == "" {
		p.log.Debug("artifact has no file name, keeping as text", zap.String("id", e.ID))
		p.text = append(p.text, lines...)
		return nil
	}
	return p.emitCode(path, lang, lines)
}

// Parse is the single-shot front-end: it parses a complete response.
func Parse(text string, opts ...Option) []builder.ContentBlock {
	p := NewParser(opts...)
	out := p.write(text)
	return append(out, p.Flush()...)
}

// Blocks lazily parses a stream. The sequence is finite and single-pass.
// On a stream error it yields pending prose, then the error once, and
// stops; a partially received code block is discarded.
func Blocks(s builder.Stream, opts ...Option) iter.Seq2[builder.ContentBlock, error] {
	return func(yield func(builder.ContentBlock, error) bool) {
		p := NewParser(opts...)
		for {
			evt, err := s.Next()
			if err == io.EOF {
				for _, b := range p.Flush() {
					if !yield(b, nil) {
						return
					}
				}
				return
			}
			if err != nil {
				for _, b := range p.Abort() {
					if !yield(b, nil) {
						return
					}
				}
				yield(nil, err)
				return
			}
			for _, b := range p.Feed(evt) {
				if !yield(b, nil) {
					return
				}
			}
		}
	}
}
