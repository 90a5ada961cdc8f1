package resolve

import (
	"fmt"
	"os"
	"path"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/builder"
	"gopkg.in/yaml.v3"
)

// Rule maps path shapes to an artifact kind. Patterns are doublestar globs
// matched against the slash-separated file path. Hints are language tags
// (as in "component:Button.tsx") that select the rule regardless of path.
type Rule struct {
	Kind     builder.Kind `yaml:"kind"`
	Patterns []string     `yaml:"patterns"`
	Hints    []string     `yaml:"hints"`
}

// Rules is an ordered classification table; the first matching rule wins.
type Rules []Rule

// DefaultRules returns the built-in classification table: routing-directory
// page files, then component files, then stylesheets, then any other file
// with an extension as config.
func DefaultRules() Rules {
	return Rules{
		{
			Kind: builder.KindPage,
			Patterns: []string{
				"**/app/**/page.{tsx,jsx,ts,js,mdx}",
				"**/pages/**/*.{tsx,jsx,ts,js,mdx}",
			},
			Hints: []string{"page"},
		},
		{
			Kind:     builder.KindComponent,
			Patterns: []string{"**/components/**/*.{tsx,jsx,ts,js}"},
			Hints:    []string{"component"},
		},
		{
			Kind:     builder.KindStyle,
			Patterns: []string{"**/*.{css,scss,sass,less}"},
			Hints:    []string{"style"},
		},
		{
			Kind:     builder.KindConfig,
			Patterns: []string{"**/*.*"},
			Hints:    []string{"config"},
		},
	}
}

type rulesFile struct {
	Rules Rules `yaml:"rules"`
}

// ParseRules decodes a YAML classification table of the form
//
//	rules:
//	  - kind: page
//	    patterns: ["**/app/**/page.tsx"]
//	    hints: [page]
func ParseRules(data []byte) (Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("resolve: decode rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("resolve: rules table is empty: %w", builder.ErrValidation)
	}
	for i, r := range f.Rules {
		if _, ok := builder.ParseKind(string(r.Kind)); !ok {
			return nil, fmt.Errorf("resolve: rule %d: unknown kind %q: %w", i, r.Kind, builder.ErrValidation)
		}
		for _, p := range r.Patterns {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("resolve: rule %d: invalid pattern %q: %w", i, p, builder.ErrValidation)
			}
		}
	}
	return f.Rules, nil
}

// LoadRules reads a YAML classification table from a file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resolve: read rules: %w", err)
	}
	return ParseRules(data)
}

// Classify returns the kind of a code block. A language hint naming a rule
// wins over path patterns. It reports false when the path is unusable or
// no rule matches.
func (rs Rules) Classify(b builder.CodeBlock) (builder.Kind, bool) {
	p, ok := cleanFilePath(b.FilePath)
	if !ok {
		return "", false
	}
	lang := strings.ToLower(strings.TrimSpace(b.Language))
	for _, r := range rs {
		for _, h := range r.Hints {
			if lang != "" && strings.EqualFold(h, lang) {
				return r.Kind, true
			}
		}
	}
	for _, r := range rs {
		for _, pat := range r.Patterns {
			if ok, _ := doublestar.Match(pat, p); ok {
				return r.Kind, true
			}
		}
	}
	return "", false
}

// cleanFilePath normalizes a block path for matching. It rejects empty
// paths, paths with whitespace or parent references and paths without a
// file extension.
func cleanFilePath(p string) (string, bool) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimLeft(p, "/")
	if p == "" || strings.ContainsFunc(p, unicode.IsSpace) {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	if ext := path.Ext(p); len(ext) < 2 || path.Base(p) == ext {
		return "", false
	}
	return path.Clean(p), true
}
