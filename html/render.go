package html

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/fwojciec/builder"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// DefaultCacheSize is the number of transformed sources a Renderer keeps.
const DefaultCacheSize = 256

const (
	tailwindScript = `<script src="https://cdn.tailwindcss.com"></script>`
	robotoFont     = `<link rel="stylesheet" href="https://fonts.googleapis.com/css?family=Roboto:300,400,500,700&display=swap" />`
	materialUI     = "Material UI"
)

// Renderer renders component and page source as preview markup. Transform
// results are cached by source text.
type Renderer struct {
	cache *lru.Cache[string, cached]
	size  int
	log   *zap.Logger
}

type cached struct {
	markup string
	err    error
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithCacheSize sets the number of cached transforms.
func WithCacheSize(n int) Option {
	return func(r *Renderer) { r.size = n }
}

// WithLogger sets the logger for transform failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{size: DefaultCacheSize, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	if r.size <= 0 {
		r.size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	r.cache, _ = lru.New[string, cached](r.size)
	return r
}

// Transform is a cached [Transform] whose output has scripts removed.
func (r *Renderer) Transform(src string) (string, error) {
	if c, ok := r.cache.Get(src); ok {
		return c.markup, c.err
	}
	markup, err := Transform(src)
	if err == nil {
		markup = StripScripts(markup)
	}
	r.cache.Add(src, cached{markup: markup, err: err})
	return markup, err
}

// Render transforms src. Source that cannot be transformed renders as an
// inline error panel naming the component.
func (r *Renderer) Render(name, src string) string {
	markup, err := r.Transform(src)
	if err != nil {
		var te *TransformError
		if errors.As(err, &te) {
			r.log.Warn("preview transform failed", zap.String("name", name), zap.String("reason", te.Reason))
		}
		return ErrorPanel(name)
	}
	return markup
}

// ErrorPanel is the markup shown in place of a component that failed to
// render.
func ErrorPanel(name string) string {
	return `<div class="p-4 border border-red-300 rounded bg-red-50 text-red-700">` +
		"Error rendering component: " + html.EscapeString(name) + `</div>`
}

const noPages = `<div class="flex min-h-screen items-center justify-center">` +
	`<div class="text-center">` +
	`<h1 class="text-2xl font-bold text-gray-900">No pages available</h1>` +
	`<p class="mt-2 text-gray-600">Create a page to see the preview</p>` +
	`</div></div>`

// RenderProject renders the project's home page as a complete document.
// The home page is the one at "/" or "/home", else the first page.
// Self-closing tags naming a project component are replaced by that
// component's markup.
func (r *Renderer) RenderProject(p builder.Project, pages []builder.Page, components []builder.Component) string {
	home, ok := builder.HomePage(pages)
	if !ok {
		return Document(p.Name+" - Preview", noPages, p.TechStack.UI == materialUI)
	}
	content := r.Render(home.Name, home.Content)
	for _, c := range components {
		placeholder := "<" + c.Name + " />"
		if !strings.Contains(content, placeholder) {
			continue
		}
		content = strings.ReplaceAll(content, placeholder, r.componentMarkup(c))
	}
	body := `<div class="min-h-screen">` + content + `</div>`
	return Document(p.Name+" - Preview", body, p.TechStack.UI == materialUI)
}

func (r *Renderer) componentMarkup(c builder.Component) string {
	markup := r.Render(c.Name, c.Code)
	if len(c.Style) == 0 {
		return markup
	}
	decls := make([]string, 0, len(c.Style))
	for _, k := range slices.Sorted(maps.Keys(c.Style)) {
		decls = append(decls, k+":"+c.Style[k])
	}
	return `<div style="` + html.EscapeString(strings.Join(decls, ";")) + `">` + markup + `</div>`
}

// Document wraps body markup in an HTML document that loads the Tailwind
// CDN and, for Material UI projects, the Roboto font.
func Document(title, body string, materialFonts bool) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString(tailwindScript + "\n")
	if materialFonts {
		b.WriteString(robotoFont + "\n")
	}
	b.WriteString("</head>\n<body>\n<div id=\"root\">\n")
	b.WriteString(body)
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}

// StripScripts removes script elements from markup and leaves the rest
// byte for byte.
func StripScripts(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var out bytes.Buffer
	depth := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF, or a read error that cannot occur on a strings.Reader
			return out.String()
		}
		name, _ := z.TagName()
		isScript := string(name) == "script"
		switch {
		case tt == html.StartTagToken && isScript:
			depth++
			continue
		case tt == html.EndTagToken && isScript && depth > 0:
			depth--
			continue
		case tt == html.SelfClosingTagToken && isScript:
			continue
		}
		if depth == 0 {
			out.Write(z.Raw())
		}
	}
}
