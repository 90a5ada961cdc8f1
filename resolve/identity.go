package resolve

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/fwojciec/builder"
)

var defaultExportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`export\s+default\s+(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`),
	regexp.MustCompile(`export\s+default\s+class\s+([A-Za-z_$][\w$]*)`),
	regexp.MustCompile(`export\s+default\s+([A-Za-z_$][\w$]*)\s*;?\s*$`),
}

// defaultExportName returns the name of the default export, if named.
func defaultExportName(src string) string {
	for _, re := range defaultExportPatterns[:2] {
		if m := re.FindStringSubmatch(src); m != nil {
			return m[1]
		}
	}
	for _, line := range strings.Split(src, "\n") {
		if m := defaultExportPatterns[2].FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			switch m[1] {
			case "function", "class", "async":
				continue
			}
			return m[1]
		}
	}
	return ""
}

// routeFromName converts a page function name to a route: a trailing
// "Page" is stripped, camel-case boundaries become hyphens and the result
// is lowercased. "Home" maps to "/".
func routeFromName(name string) string {
	base := pageBaseName(name)
	if base == "" {
		return ""
	}
	if strings.EqualFold(base, "home") {
		return "/"
	}
	return "/" + strings.Join(splitWords(base), "-")
}

func pageBaseName(name string) string {
	if strings.HasSuffix(name, "Page") && len(name) > len("Page") {
		name = strings.TrimSuffix(name, "Page")
	} else if name == "Page" {
		return ""
	}
	return name
}

// splitWords splits a camel-case identifier into lowercase words.
// "AboutUs" yields [about us]; "FAQSection" yields [faq section].
func splitWords(s string) []string {
	rs := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(rs); i++ {
		prev, cur := rs[i-1], rs[i]
		next := rune(0)
		if i+1 < len(rs) {
			next = rs[i+1]
		}
		boundary := (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(cur) ||
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && unicode.IsLower(next)
		if cur == '_' || cur == '-' {
			if i > start {
				words = append(words, strings.ToLower(string(rs[start:i])))
			}
			start = i + 1
			continue
		}
		if boundary && i > start {
			words = append(words, strings.ToLower(string(rs[start:i])))
			start = i
		}
	}
	if start < len(rs) {
		words = append(words, strings.ToLower(string(rs[start:])))
	}
	return words
}

// routeFromPath derives a route from an app-router or pages-router path.
// Route groups such as "(marketing)" are dropped.
func routeFromPath(p string) string {
	segs := strings.Split(p, "/")
	for i := len(segs) - 1; i >= 0; i-- {
		switch segs[i] {
		case "app":
			return joinRoute(segs[i+1 : len(segs)-1])
		case "pages":
			rest := append([]string{}, segs[i+1:len(segs)-1]...)
			base := strings.TrimSuffix(segs[len(segs)-1], path.Ext(segs[len(segs)-1]))
			if base != "index" {
				rest = append(rest, base)
			}
			return joinRoute(rest)
		}
	}
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if base == "page" || base == "index" {
		return joinRoute(segs[:len(segs)-1])
	}
	if r := routeFromName(base); r != "" {
		return r
	}
	return builder.NormalizeRoute(base)
}

func joinRoute(segs []string) string {
	var kept []string
	for _, s := range segs {
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			continue
		}
		if s == "src" {
			continue
		}
		kept = append(kept, s)
	}
	return builder.NormalizeRoute(strings.Join(kept, "/"))
}

// pageName returns a display name for a page.
func pageName(fn, route string) string {
	if base := pageBaseName(fn); base != "" {
		return titleWords(splitWords(base))
	}
	if route == "/" {
		return "Home"
	}
	last := route[strings.LastIndexByte(route, '/')+1:]
	last = strings.Trim(last, "[]")
	return titleWords(strings.FieldsFunc(last, func(r rune) bool { return r == '-' || r == '_' }))
}

func titleWords(words []string) string {
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

// componentName derives a component name from a file path: the base name
// without extension, or the parent directory for index files.
func componentName(p string) string {
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if base == "index" {
		if dir := path.Base(path.Dir(p)); dir != "." && dir != "/" {
			return dir
		}
	}
	return base
}

var (
	jsxTag      = regexp.MustCompile(`<([A-Z][A-Za-z0-9_]*)[\s/>]`)
	importLine  = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	importNames = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
)

// referencedComponents returns the PascalCase JSX tags used by src, in
// first-use order, excluding names imported from packages.
func referencedComponents(src string) []string {
	external := make(map[string]bool)
	for _, m := range importLine.FindAllStringSubmatch(src, -1) {
		spec := m[2]
		if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "@/") || strings.HasPrefix(spec, "~/") {
			continue
		}
		for _, n := range importNames.FindAllString(m[1], -1) {
			external[n] = true
		}
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range jsxTag.FindAllStringSubmatch(src, -1) {
		n := m[1]
		if external[n] || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// extractProps returns the members of "interface <Name>Props" or
// "type <Name>Props = {...}" declared in src.
func extractProps(src, name string) []builder.Prop {
	body, ok := propsBody(src, name+"Props")
	if !ok {
		return nil
	}
	var props []builder.Prop
	for _, member := range splitMembers(body) {
		n, t, ok := strings.Cut(member, ":")
		if !ok {
			continue
		}
		n = strings.TrimSuffix(strings.TrimSpace(n), "?")
		n = strings.TrimPrefix(n, "readonly ")
		t = strings.TrimSpace(t)
		if n == "" || strings.ContainsAny(n, " ([") {
			continue
		}
		props = append(props, builder.Prop{Name: n, Type: t})
	}
	return props
}

func propsBody(src, typeName string) (string, bool) {
	for _, decl := range []string{"interface " + typeName, "type " + typeName} {
		i := strings.Index(src, decl)
		if i < 0 {
			continue
		}
		rest := src[i+len(decl):]
		if len(rest) > 0 && (unicode.IsLetter(rune(rest[0])) || unicode.IsDigit(rune(rest[0]))) {
			continue
		}
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			continue
		}
		depth := 0
		for j := open; j < len(rest); j++ {
			switch rest[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return rest[open+1 : j], true
				}
			}
		}
	}
	return "", false
}

// splitMembers splits a type body on top-level ';', ',' and newlines.
func splitMembers(body string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range body {
		switch r {
		case '{', '(', '[', '<':
			depth++
		case '}', ')', ']', '>':
			if depth > 0 && !(r == '>' && i > 0 && body[i-1] == '=') {
				depth--
			}
		case ';', ',', '\n':
			if depth == 0 {
				if s := strings.TrimSpace(body[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(body[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
