package builder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupProject_SeedsDefaultPages(t *testing.T) {
	t.Parallel()
	var created builder.ProjectInput
	var added []builder.PageInput
	store := &mock.Store{
		CreateProjectFn: func(_ context.Context, in builder.ProjectInput) (builder.Project, error) {
			created = in
			return builder.Project{ID: "p1", Name: in.Name, RepoName: in.RepoName}, nil
		},
		AddPageFn: func(_ context.Context, projectID string, in builder.PageInput) (builder.Page, error) {
			added = append(added, in)
			return builder.Page{ID: in.Name, ProjectID: projectID, Path: in.Path}, nil
		},
	}

	p, pages, err := builder.SetupProject(context.Background(), store, builder.ProjectInput{Name: "My Shop"})

	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "my-shop", created.RepoName)
	require.Len(t, pages, 3)
	assert.Equal(t, []string{"/", "/about", "/contact"}, []string{pages[0].Path, pages[1].Path, pages[2].Path})
	assert.Contains(t, added[0].Content, "export default function HomePage()")
}

func TestSetupProject_RejectsEmptyName(t *testing.T) {
	t.Parallel()
	_, _, err := builder.SetupProject(context.Background(), &mock.Store{}, builder.ProjectInput{})
	assert.ErrorIs(t, err, builder.ErrValidation)
}

func TestSetupProject_PropagatesStoreError(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	store := &mock.Store{
		CreateProjectFn: func(context.Context, builder.ProjectInput) (builder.Project, error) {
			return builder.Project{}, boom
		},
	}
	_, _, err := builder.SetupProject(context.Background(), store, builder.ProjectInput{Name: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestPageUpdate_Apply(t *testing.T) {
	t.Parallel()
	content := "new"
	path := "contact/"
	p := builder.Page{Name: "Contact", Path: "/old", Content: "old", Components: []string{"Form"}}

	builder.PageUpdate{Content: &content, Path: &path}.Apply(&p)

	assert.Equal(t, "new", p.Content)
	assert.Equal(t, "/contact", p.Path)
	assert.Equal(t, "Contact", p.Name)
	assert.Equal(t, []string{"Form"}, p.Components)
}

func TestComponentUpdate_Apply_PreservesUnsetFields(t *testing.T) {
	t.Parallel()
	code := "v2"
	c := builder.Component{Name: "Button", Type: builder.ComponentForm, Code: "v1", Props: []builder.Prop{{Name: "label", Type: "string"}}}

	builder.ComponentUpdate{Code: &code}.Apply(&c)

	assert.Equal(t, "v2", c.Code)
	assert.Equal(t, builder.ComponentForm, c.Type)
	assert.Equal(t, []builder.Prop{{Name: "label", Type: "string"}}, c.Props)
}

func TestComponent_Clone_IsDeep(t *testing.T) {
	t.Parallel()
	c := builder.Component{Style: map[string]string{"color": "red"}, Props: []builder.Prop{{Name: "a"}}}

	cp := c.Clone()
	cp.Style["color"] = "blue"
	cp.Props[0].Name = "b"

	assert.Equal(t, "red", c.Style["color"])
	assert.Equal(t, "a", c.Props[0].Name)
}

func TestHomePage(t *testing.T) {
	t.Parallel()

	_, ok := builder.HomePage(nil)
	assert.False(t, ok)

	p, ok := builder.HomePage([]builder.Page{{Path: "/about"}, {Path: "/home"}})
	require.True(t, ok)
	assert.Equal(t, "/home", p.Path)

	p, ok = builder.HomePage([]builder.Page{{Path: "/about"}, {Path: "/contact"}})
	require.True(t, ok)
	assert.Equal(t, "/about", p.Path)
}

func TestFindPageAndComponent(t *testing.T) {
	t.Parallel()
	pages := []builder.Page{{ID: "1", Path: "/about"}}
	comps := []builder.Component{{ID: "2", Name: "Button"}}

	p, ok := builder.FindPage(pages, "about/")
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)

	_, ok = builder.FindComponent(comps, "button")
	assert.False(t, ok, "component lookup is case-sensitive")

	c, ok := builder.FindComponent(comps, "Button")
	require.True(t, ok)
	assert.Equal(t, "2", c.ID)
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	k, ok := builder.ParseKind("component")
	assert.True(t, ok)
	assert.Equal(t, builder.KindComponent, k)
	_, ok = builder.ParseKind("tsx")
	assert.False(t, ok)
}
