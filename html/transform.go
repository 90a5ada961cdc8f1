// Package html turns React-shaped component source into static markup
// for preview surfaces that cannot run a framework build.
//
// The transform is lossy: it keeps the element tree returned by the
// default export, rewrites JSX attribute spellings to HTML, inlines
// literal interpolations and drops everything that needs a runtime
// (event handlers, computed expressions, spreads).
package html

import (
	"fmt"
	"strings"
)

// TransformError reports source that does not have the expected simple
// component shape.
type TransformError struct {
	Reason string
}

func (e *TransformError) Error() string {
	return "html: " + e.Reason
}

func transformErrorf(format string, args ...any) *TransformError {
	return &TransformError{Reason: fmt.Sprintf(format, args...)}
}

// Transform converts component source into static HTML. It returns a
// *TransformError when the source has no default export or the returned
// element tree cannot be scanned.
func Transform(src string) (string, error) {
	code := stripPreamble(src)
	start, err := findReturnedJSX(code)
	if err != nil {
		return "", err
	}
	s := &scanner{src: code, pos: start}
	var b strings.Builder
	if err := s.element(&b); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// stripPreamble removes the client directive and import statements.
// A multi-line import ends on the first line carrying its module string.
func stripPreamble(src string) string {
	var b strings.Builder
	inImport := false
	for line := range strings.Lines(src) {
		trimmed := strings.TrimSpace(line)
		switch {
		case inImport:
			if strings.ContainsAny(trimmed, `"'`) {
				inImport = false
			}
			continue
		case isDirective(trimmed):
			continue
		case strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "import{"):
			if !strings.ContainsAny(trimmed, `"'`) {
				inImport = true
			}
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

func isDirective(line string) bool {
	line = strings.TrimSuffix(line, ";")
	return line == `"use client"` || line == `'use client'` ||
		line == `"use server"` || line == `'use server'`
}

// findReturnedJSX locates the root element returned by the default
// export and returns its offset.
func findReturnedJSX(code string) (int, error) {
	idx := strings.Index(code, "export default")
	if idx < 0 {
		return 0, transformErrorf("no default export")
	}
	from := idx
	rest := strings.TrimLeft(code[idx+len("export default"):], " \t\r\n")
	if name := leadingIdent(rest); name != "" && !isKeyword(name) {
		// export default Name; the declaration precedes the export.
		from = 0
		for _, decl := range []string{"function " + name, "const " + name, "let " + name, "var " + name} {
			if i := strings.Index(code, decl); i >= 0 {
				from = i
				break
			}
		}
	}

	for i := from; i < len(code); i++ {
		var after int
		switch {
		case strings.HasPrefix(code[i:], "return") && boundary(code, i, len("return")):
			after = i + len("return")
		case strings.HasPrefix(code[i:], "=>"):
			after = i + 2
		default:
			continue
		}
		j := skipSpace(code, after)
		for j < len(code) && code[j] == '(' {
			j = skipSpace(code, j+1)
		}
		if j+1 < len(code) && code[j] == '<' && (isLetter(code[j+1]) || code[j+1] == '>') {
			return j, nil
		}
	}
	return 0, transformErrorf("default export returns no JSX")
}

func leadingIdent(s string) string {
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return s[:i]
}

func isKeyword(s string) bool {
	switch s {
	case "function", "async", "class":
		return true
	}
	return false
}

// boundary reports whether code[i:i+n] is a whole word.
func boundary(code string, i, n int) bool {
	if i > 0 && isIdentByte(code[i-1]) {
		return false
	}
	return i+n >= len(code) || !isIdentByte(code[i+n])
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentByte(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '_' || c == '$'
}
