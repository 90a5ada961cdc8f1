package html

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// scanner walks a JSX element tree and writes the static HTML it
// denotes. It has three states: inside a tag's attribute list, inside
// element children, and inside a braced expression. Expressions are
// scanned only to find their end; nested elements inside them are
// scanned into a discarded buffer.
type scanner struct {
	src string
	pos int
}

type attr struct {
	name  string
	value string
	kind  attrKind
}

type attrKind int

const (
	attrBare attrKind = iota
	attrString
	attrExpr
)

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) skipSpace() { s.pos = skipSpace(s.src, s.pos) }

func (s *scanner) name() string {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if !isIdentByte(c) && c != '-' && c != '.' && c != ':' {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos]
}

// element scans one element starting at '<'.
func (s *scanner) element(w *strings.Builder) error {
	s.pos++ // <
	if s.peek() == '>' {
		s.pos++
		return s.children(w, "")
	}
	tag := s.name()
	if tag == "" {
		return transformErrorf("malformed tag at offset %d", s.pos)
	}
	attrs, selfClosing, err := s.attributes(tag)
	if err != nil {
		return err
	}

	source := tag
	if mapped, ok := frameworkTags[tag]; ok {
		tag = mapped
	}
	if isComponentTag(tag) {
		// Kept verbatim so page markup can substitute component output.
		if selfClosing {
			w.WriteString("<" + tag + " />")
			return nil
		}
		w.WriteString("<" + tag + ">")
		if err := s.children(w, tag); err != nil {
			return err
		}
		w.WriteString("</" + tag + ">")
		return nil
	}

	w.WriteString("<" + tag)
	for _, a := range attrs {
		writeAttr(w, a)
	}
	w.WriteByte('>')
	if selfClosing {
		if !voidElements[tag] {
			w.WriteString("</" + tag + ">")
		}
		return nil
	}
	if err := s.children(w, source); err != nil {
		return err
	}
	if !voidElements[tag] {
		w.WriteString("</" + tag + ">")
	}
	return nil
}

// frameworkTags are framework components with a plain HTML equivalent.
var frameworkTags = map[string]string{
	"Link":  "a",
	"Image": "img",
}

func isComponentTag(tag string) bool {
	return unicode.IsUpper(rune(tag[0])) || strings.Contains(tag, ".")
}

// attributes scans up to and including the closing '>' or '/>'.
func (s *scanner) attributes(tag string) ([]attr, bool, error) {
	var attrs []attr
	for {
		s.skipSpace()
		switch {
		case s.eof():
			return nil, false, transformErrorf("unterminated tag <%s>", tag)
		case strings.HasPrefix(s.src[s.pos:], "/>"):
			s.pos += 2
			return attrs, true, nil
		case s.peek() == '>':
			s.pos++
			return attrs, false, nil
		case s.peek() == '{':
			// spread attributes have no static form
			if _, err := s.braced(); err != nil {
				return nil, false, err
			}
			continue
		}

		name := s.name()
		if name == "" {
			return nil, false, transformErrorf("malformed attribute in <%s> at offset %d", tag, s.pos)
		}
		s.skipSpace()
		if s.peek() != '=' {
			attrs = append(attrs, attr{name: name, kind: attrBare})
			continue
		}
		s.pos++
		s.skipSpace()
		switch q := s.peek(); q {
		case '"', '\'':
			end := strings.IndexByte(s.src[s.pos+1:], q)
			if end < 0 {
				return nil, false, transformErrorf("unterminated attribute %s in <%s>", name, tag)
			}
			attrs = append(attrs, attr{name: name, value: s.src[s.pos+1 : s.pos+1+end], kind: attrString})
			s.pos += end + 2
		case '{':
			expr, err := s.braced()
			if err != nil {
				return nil, false, err
			}
			attrs = append(attrs, attr{name: name, value: expr, kind: attrExpr})
		default:
			return nil, false, transformErrorf("malformed attribute %s in <%s>", name, tag)
		}
	}
}

// children scans element content up to the closing tag of tag. An empty
// tag denotes a fragment, closed by "</>".
func (s *scanner) children(w *strings.Builder, tag string) error {
	for {
		if s.eof() {
			if tag == "" {
				return transformErrorf("unterminated fragment")
			}
			return transformErrorf("unterminated element <%s>", tag)
		}
		switch {
		case strings.HasPrefix(s.src[s.pos:], "</"):
			s.pos += 2
			s.skipSpace()
			closing := s.name()
			s.skipSpace()
			if s.peek() != '>' || closing != tag {
				return transformErrorf("mismatched closing tag </%s> for <%s>", closing, tag)
			}
			s.pos++
			return nil
		case s.peek() == '<' && s.pos+1 < len(s.src) && (isLetter(s.src[s.pos+1]) || s.src[s.pos+1] == '>'):
			if err := s.element(w); err != nil {
				return err
			}
		case s.peek() == '{':
			expr, err := s.braced()
			if err != nil {
				return err
			}
			w.WriteString(childExpr(expr))
		default:
			start := s.pos
			for !s.eof() && s.peek() != '<' && s.peek() != '{' {
				s.pos++
			}
			if start == s.pos {
				// a lone '<' that does not open a tag
				s.pos++
			}
			w.WriteString(s.src[start:s.pos])
		}
	}
}

// braced scans a balanced {...} expression and returns its inner text.
func (s *scanner) braced() (string, error) {
	open := s.pos
	s.pos++
	depth := 1
	var prev byte = '{'
	for !s.eof() {
		c := s.peek()
		switch {
		case c == '"' || c == '\'':
			end := strings.IndexByte(s.src[s.pos+1:], c)
			if end < 0 {
				return "", transformErrorf("unterminated string at offset %d", s.pos)
			}
			s.pos += end + 2
			prev = c
			continue
		case c == '`':
			if err := s.template(); err != nil {
				return "", err
			}
			prev = c
			continue
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				return "", transformErrorf("unterminated comment at offset %d", s.pos)
			}
			s.pos += end + 4
			continue
		case c == '<' && startsJSX(prev) && s.pos+1 < len(s.src) && (isLetter(s.src[s.pos+1]) || s.src[s.pos+1] == '>'):
			var discard strings.Builder
			if err := s.element(&discard); err != nil {
				return "", err
			}
			prev = '>'
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				s.pos++
				return s.src[open+1 : s.pos-1], nil
			}
		}
		if !isSpace(c) {
			prev = c
		}
		s.pos++
	}
	return "", transformErrorf("unterminated expression at offset %d", open)
}

// startsJSX reports whether an element may begin after prev in
// expression position.
func startsJSX(prev byte) bool {
	return strings.IndexByte("({[,?:&|=>", prev) >= 0
}

// template skips a template literal including ${} substitutions.
func (s *scanner) template() error {
	open := s.pos
	s.pos++
	for !s.eof() {
		switch {
		case s.peek() == '\\':
			s.pos += 2
		case s.peek() == '`':
			s.pos++
			return nil
		case strings.HasPrefix(s.src[s.pos:], "${"):
			s.pos++
			if _, err := s.braced(); err != nil {
				return err
			}
		default:
			s.pos++
		}
	}
	return transformErrorf("unterminated template literal at offset %d", open)
}

// childExpr renders an interpolation in element content: literals are
// inlined, identifier paths are shown by name and anything else needs a
// runtime and is dropped.
func childExpr(expr string) string {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "/*") && strings.HasSuffix(expr, "*/") {
		return ""
	}
	if lit, ok := literal(expr); ok {
		return html.EscapeString(lit)
	}
	if isPath(expr) {
		return html.EscapeString(expr)
	}
	return ""
}

// literal returns the value of a string, template or number literal.
func literal(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if len(expr) >= 2 {
		q, last := expr[0], expr[len(expr)-1]
		switch {
		case q == '"' && last == '"':
			if v, err := strconv.Unquote(expr); err == nil {
				return v, true
			}
		case q == '\'' && last == '\'':
			inner := expr[1 : len(expr)-1]
			if !strings.ContainsRune(inner, '\'') || strings.Contains(inner, `\'`) {
				return strings.ReplaceAll(inner, `\'`, "'"), true
			}
		case q == '`' && last == '`':
			inner := expr[1 : len(expr)-1]
			if !strings.Contains(inner, "${") {
				return inner, true
			}
		}
	}
	if _, err := strconv.ParseFloat(expr, 64); err == nil {
		return expr, true
	}
	return "", false
}

// isPath reports whether expr is a dotted identifier path like a.b.c.
func isPath(expr string) bool {
	if expr == "" {
		return false
	}
	for part := range strings.SplitSeq(expr, ".") {
		if part == "" || part[0] >= '0' && part[0] <= '9' {
			return false
		}
		for i := 0; i < len(part); i++ {
			if !isIdentByte(part[i]) {
				return false
			}
		}
	}
	return true
}

var attrNames = map[string]string{
	"className": "class",
	"htmlFor":   "for",
	"tabIndex":  "tabindex",
	"readOnly":  "readonly",
	"maxLength": "maxlength",
	"autoFocus": "autofocus",
}

func writeAttr(w *strings.Builder, a attr) {
	name := a.name
	if mapped, ok := attrNames[name]; ok {
		name = mapped
	}
	if dropAttr(name) {
		return
	}
	switch a.kind {
	case attrBare:
		w.WriteString(" " + name)
		return
	case attrString:
		w.WriteString(" " + name + `="` + html.EscapeString(a.value) + `"`)
		return
	}

	expr := strings.TrimSpace(a.value)
	switch {
	case expr == "true":
		w.WriteString(" " + name)
	case expr == "false" || expr == "null" || expr == "undefined":
	case name == "style" && strings.HasPrefix(expr, "{"):
		if css, ok := styleObject(expr); ok && css != "" {
			w.WriteString(` style="` + html.EscapeString(css) + `"`)
		}
	default:
		if lit, ok := literal(expr); ok {
			w.WriteString(" " + name + `="` + html.EscapeString(lit) + `"`)
		}
	}
}

func dropAttr(name string) bool {
	switch name {
	case "key", "ref", "dangerouslySetInnerHTML":
		return true
	}
	return len(name) > 2 && strings.HasPrefix(name, "on") && unicode.IsUpper(rune(name[2]))
}

var unitless = map[string]bool{
	"opacity": true, "zIndex": true, "fontWeight": true, "flex": true,
	"flexGrow": true, "flexShrink": true, "lineHeight": true, "order": true,
}

// styleObject renders a literal style object such as
// {{ marginTop: 4, color: 'red' }} as CSS declarations. It fails on any
// computed key or value.
func styleObject(expr string) (string, bool) {
	body := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(expr, "{"), "}"))
	var decls []string
	for pair := range strings.SplitSeq(body, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return "", false
		}
		key = strings.TrimSpace(key)
		prop := kebab(key)
		if k, ok := literal(key); ok {
			prop = k
		} else if !isPath(key) || strings.Contains(key, ".") {
			return "", false
		}
		v, ok := literal(value)
		if !ok {
			return "", false
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil && v != "0" && !unitless[key] {
			v += "px"
		}
		decls = append(decls, prop+":"+v)
	}
	return strings.Join(decls, ";"), true
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
