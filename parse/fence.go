package parse

import (
	"path"
	"strings"
	"unicode"
)

// openFence reports whether line opens a fenced code block and returns the
// fence marker and info string.
func openFence(line string) (marker, info string, ok bool) {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 || len(t) < 3 {
		return "", "", false
	}
	c := t[0]
	if c != '`' && c != '~' {
		return "", "", false
	}
	n := 0
	for n < len(t) && t[n] == c {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	info = strings.TrimSpace(t[n:])
	if c == '`' && strings.ContainsRune(info, '`') {
		return "", "", false
	}
	return t[:n], info, true
}

// markerLine reports whether line is a bare "lang:path" marker, optionally
// wrapped in backticks or emphasis, as in "typescript:src/app/page.tsx".
func markerLine(line string) (lang, p string, ok bool) {
	t := strings.Trim(strings.TrimSpace(line), "`*_")
	l, rest, found := strings.Cut(t, ":")
	if !found || !languageTags[strings.ToLower(l)] || !looksLikePath(rest) {
		return "", "", false
	}
	return l, cleanPath(rest), true
}

// endsMarkedBlock reports whether line is the "file:" narration that closes
// a block opened by a bare marker.
func endsMarkedBlock(line string) bool {
	t := strings.Trim(strings.TrimSpace(line), "*_#` ")
	label, _, ok := strings.Cut(t, ":")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "file", "filepath", "filename", "file path":
		return true
	}
	return false
}

// closesFence reports whether line closes a fence opened with marker.
func closesFence(line, marker string) bool {
	t := strings.TrimSpace(line)
	if marker == "" || len(t) < len(marker) {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != marker[0] {
			return false
		}
	}
	return true
}

// unwrapFence strips a fence wrapping the whole of lines, ignoring blank
// lines around it.
func unwrapFence(lines []string) (inner []string, info string, ok bool) {
	first, last := 0, len(lines)-1
	for first <= last && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	for last >= first && strings.TrimSpace(lines[last]) == "" {
		last--
	}
	if last <= first {
		return lines, "", false
	}
	marker, info, ok := openFence(lines[first])
	if !ok || !closesFence(lines[last], marker) {
		return lines, "", false
	}
	return lines[first+1 : last], info, true
}

var pathKeys = []string{"filepath", "filename", "file", "path", "title"}

// parseInfo splits a fence info string into language and path. Recognized
// forms are "lang:path", "lang path", "path" and "lang key=path".
func parseInfo(info string) (lang, p string) {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return "", ""
	}
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		for _, key := range pathKeys {
			if strings.EqualFold(k, key) {
				if v = strings.Trim(v, `"'`); looksLikePath(v) {
					p = cleanPath(v)
				}
			}
		}
	}
	first := fields[0]
	if l, rest, ok := strings.Cut(first, ":"); ok && l != "" && !strings.ContainsAny(l, "/.") && looksLikePath(rest) {
		return l, cleanPath(rest)
	}
	if looksLikePath(first) {
		return "", cleanPath(first)
	}
	if p == "" && len(fields) > 1 && looksLikePath(fields[1]) {
		p = cleanPath(fields[1])
	}
	return first, p
}

// looksLikePath reports whether s is a relative-looking file path with an
// extension.
func looksLikePath(s string) bool {
	if s == "" || strings.ContainsFunc(s, unicode.IsSpace) || strings.Contains(s, "://") {
		return false
	}
	ext := path.Ext(s)
	if len(ext) < 2 || path.Base(s) == ext {
		return false
	}
	for _, r := range ext[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func cleanPath(s string) string {
	return strings.TrimPrefix(s, "./")
}

// commentWrappers are the comment forms a model uses to restate a path on
// the first line of a code body.
var commentWrappers = [][2]string{
	{"{/*", "*/}"},
	{"/*", "*/"},
	{"<!--", "-->"},
	{"//", ""},
	{"#", ""},
	{"--", ""},
}

// restatedPath reports whether a trimmed line restates a file path, as a
// comment or a "file:" label.
func restatedPath(t string) (string, bool) {
	wrapped := false
	for _, w := range commentWrappers {
		if strings.HasPrefix(t, w[0]) && strings.HasSuffix(t, w[1]) && len(t) >= len(w[0])+len(w[1]) {
			t = strings.TrimSpace(t[len(w[0]) : len(t)-len(w[1])])
			wrapped = true
			break
		}
	}
	if p, ok := labeledPath(t); ok {
		return p, true
	}
	if wrapped {
		t = strings.Trim(t, "`*")
		if looksLikePath(t) {
			return cleanPath(t), true
		}
		return "", false
	}
	// A bare line must carry a known source extension.
	if _, ok := extLanguages[strings.ToLower(path.Ext(t))]; ok && looksLikePath(t) {
		return cleanPath(t), true
	}
	return "", false
}

// narrationPath reports whether a prose line is a "file: path" label.
func narrationPath(line string) (string, bool) {
	t := strings.Trim(strings.TrimSpace(line), "*_")
	t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
	t = strings.TrimLeft(t, "# ")
	return labeledPath(t)
}

func labeledPath(t string) (string, bool) {
	label, rest, ok := strings.Cut(t, ":")
	if !ok {
		return "", false
	}
	label = strings.ToLower(strings.Trim(strings.TrimSpace(label), "*_`"))
	switch label {
	case "file", "filepath", "filename", "path", "file path":
	default:
		return "", false
	}
	rest = strings.Trim(rest, " `*_\"'")
	if !looksLikePath(rest) {
		return "", false
	}
	return cleanPath(rest), true
}

var languageTags = map[string]bool{
	"typescript": true, "ts": true, "tsx": true,
	"javascript": true, "js": true, "jsx": true,
	"css": true, "scss": true, "sass": true, "less": true,
	"json": true, "html": true, "markdown": true, "md": true, "mdx": true,
	"yaml": true, "yml": true, "bash": true, "sh": true,
}

// isLanguageTag reports whether a trimmed line is a stray language tag.
func isLanguageTag(t, lang string) bool {
	l := strings.ToLower(t)
	return (lang != "" && l == strings.ToLower(lang)) || languageTags[l]
}

var extLanguages = map[string]string{
	".tsx":  "tsx",
	".ts":   "typescript",
	".jsx":  "jsx",
	".js":   "javascript",
	".mjs":  "javascript",
	".css":  "css",
	".scss": "scss",
	".json": "json",
	".html": "html",
	".md":   "markdown",
	".mdx":  "mdx",
}

func languageFor(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}

// cleanBody strips leading blank lines, a stray language tag or repeated
// fence opener, a path restatement and trailing blank lines from a code
// body.
func cleanBody(body []string, lang, p string) []string {
	body = trimBlank(body)
	if len(body) > 0 && (isLanguageTag(strings.TrimSpace(body[0]), lang) || repeatsOpener(body[0], lang, p)) {
		body = trimBlank(body[1:])
	}
	if len(body) > 0 {
		if rp, ok := restatedPath(strings.TrimSpace(body[0])); ok && samePath(rp, p) {
			body = trimBlank(body[1:])
		}
	}
	return body
}

// repeatsOpener reports whether line is a second fence opener for the same
// block: no language or the block's language, and no other path.
func repeatsOpener(line, lang, p string) bool {
	_, info, ok := openFence(line)
	if !ok {
		return false
	}
	l, fp := parseInfo(info)
	if fp != "" && !samePath(fp, p) {
		return false
	}
	return l == "" || strings.EqualFold(l, lang)
}

func samePath(a, b string) bool {
	return a == b || strings.HasSuffix(a, "/"+b) || strings.HasSuffix(b, "/"+a)
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
