package html_test

import (
	"testing"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/html"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStripScripts(t *testing.T) {
	t.Parallel()

	got := html.StripScripts(`<div>a<script>alert("x")</script>b</div><Hero />`)
	assert.Equal(t, `<div>ab</div><Hero />`, got)
}

func TestRenderer(t *testing.T) {
	t.Parallel()

	t.Run("removes scripts from transformed markup", func(t *testing.T) {
		t.Parallel()
		r := html.NewRenderer()
		got, err := r.Transform(`export default function S() { return <div><script>{"alert(1)"}</script><p>ok</p></div>; }`)
		require.NoError(t, err)
		assert.Equal(t, `<div><p>ok</p></div>`, got)
	})

	t.Run("failed transform renders error panel", func(t *testing.T) {
		t.Parallel()
		core, logs := observer.New(zap.WarnLevel)
		r := html.NewRenderer(html.WithLogger(zap.New(core)), html.WithCacheSize(1))

		got := r.Render("Broken", "const x = 1")
		assert.Equal(t, html.ErrorPanel("Broken"), got)
		assert.Contains(t, got, "Error rendering component: Broken")
		assert.Contains(t, got, "bg-red-50")
		require.Equal(t, 1, logs.FilterMessage("preview transform failed").Len())

		// cached results behave the same
		assert.Equal(t, got, r.Render("Broken", "const x = 1"))
	})
}

func TestRenderProject(t *testing.T) {
	t.Parallel()

	home := builder.Page{
		Name:    "Home",
		Path:    "/",
		Content: `export default function Home() { return <main><Hero /><Footer /></main>; }`,
	}
	about := builder.Page{
		Name:    "About",
		Path:    "/about",
		Content: `export default function About() { return <h1>About</h1>; }`,
	}
	hero := builder.Component{
		Name:  "Hero",
		Code:  `export default function Hero() { return <section className="hero">Hi</section>; }`,
		Style: map[string]string{"padding": "4px", "color": "red"},
	}
	footer := builder.Component{Name: "Footer", Code: `not a component`}

	t.Run("no pages", func(t *testing.T) {
		t.Parallel()
		got := html.NewRenderer().RenderProject(builder.Project{Name: "A & B"}, nil, nil)
		assert.Contains(t, got, "No pages available")
		assert.Contains(t, got, "<title>A &amp; B - Preview</title>")
		assert.Contains(t, got, `<script src="https://cdn.tailwindcss.com"></script>`)
		assert.NotContains(t, got, "Roboto")
	})

	t.Run("home page with substituted components", func(t *testing.T) {
		t.Parallel()
		got := html.NewRenderer().RenderProject(
			builder.Project{Name: "Shop"},
			[]builder.Page{about, home},
			[]builder.Component{hero, footer},
		)
		assert.Contains(t, got, `<div class="min-h-screen"><main><div style="color:red;padding:4px"><section class="hero">Hi</section></div>`)
		assert.Contains(t, got, "Error rendering component: Footer")
		assert.NotContains(t, got, "<h1>About</h1>")
	})

	t.Run("first page when no home route", func(t *testing.T) {
		t.Parallel()
		got := html.NewRenderer().RenderProject(builder.Project{Name: "Shop"}, []builder.Page{about}, nil)
		assert.Contains(t, got, "<h1>About</h1>")
	})

	t.Run("material ui loads roboto", func(t *testing.T) {
		t.Parallel()
		p := builder.Project{Name: "Shop", TechStack: builder.TechStack{UI: "Material UI"}}
		got := html.NewRenderer().RenderProject(p, []builder.Page{about}, nil)
		assert.Contains(t, got, "family=Roboto")
	})
}
