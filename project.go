package builder

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// TechStack records the libraries a generated project targets.
type TechStack struct {
	UI         string
	State      string
	Validation string
}

// Project is the root aggregate. It owns its Pages and Components.
type Project struct {
	ID          string
	Name        string
	Description string
	TechStack   TechStack
	GitProvider string
	RepoName    string
	CreatedAt   time.Time
}

// ProjectInput holds the fields of a new project.
type ProjectInput struct {
	Name        string
	Description string
	TechStack   TechStack
	GitProvider string
	RepoName    string
}

// Validate checks that the project has a name.
func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("project name must not be empty: %w", ErrValidation)
	}
	return nil
}

// Page is a routed page of a project. Path is unique within the project
// and "/" denotes the home route.
type Page struct {
	ID          string
	ProjectID   string
	Name        string
	Path        string
	Content     string
	Components  []string
	APIs        []string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PageInput holds the fields of a new page.
type PageInput struct {
	Name        string
	Path        string
	Content     string
	Components  []string
	APIs        []string
	Description string
}

// PageUpdate is a partial page update. Nil fields are left unchanged.
type PageUpdate struct {
	Name        *string
	Path        *string
	Content     *string
	Components  []string
	APIs        []string
	Description *string
}

// Apply merges the update over p.
func (u PageUpdate) Apply(p *Page) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Path != nil {
		p.Path = NormalizeRoute(*u.Path)
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.Components != nil {
		p.Components = slices.Clone(u.Components)
	}
	if u.APIs != nil {
		p.APIs = slices.Clone(u.APIs)
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
}

// ComponentType categorizes a component.
type ComponentType string

const (
	ComponentUI     ComponentType = "ui"
	ComponentLayout ComponentType = "layout"
	ComponentForm   ComponentType = "form"
	ComponentData   ComponentType = "data"
)

// Valid reports whether t is one of the known component types.
func (t ComponentType) Valid() bool {
	switch t {
	case ComponentUI, ComponentLayout, ComponentForm, ComponentData:
		return true
	}
	return false
}

// Prop is one declared component property.
type Prop struct {
	Name string
	Type string
}

// Component is a reusable component of a project. Name is PascalCase and
// unique within the project (case-sensitive).
type Component struct {
	ID        string
	ProjectID string
	Name      string
	Type      ComponentType
	Code      string
	Props     []Prop
	Style     map[string]string
	Preview   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComponentInput holds the fields of a new component.
type ComponentInput struct {
	Name    string
	Type    ComponentType
	Code    string
	Props   []Prop
	Style   map[string]string
	Preview string
}

// ComponentUpdate is a partial component update. Nil fields are left unchanged.
type ComponentUpdate struct {
	Name    *string
	Type    *ComponentType
	Code    *string
	Props   []Prop
	Style   map[string]string
	Preview *string
}

// Apply merges the update over c.
func (u ComponentUpdate) Apply(c *Component) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Type != nil {
		c.Type = *u.Type
	}
	if u.Code != nil {
		c.Code = *u.Code
	}
	if u.Props != nil {
		c.Props = slices.Clone(u.Props)
	}
	if u.Style != nil {
		c.Style = maps.Clone(u.Style)
	}
	if u.Preview != nil {
		c.Preview = *u.Preview
	}
}

// Clone returns a deep copy of p.
func (p Page) Clone() Page {
	p.Components = slices.Clone(p.Components)
	p.APIs = slices.Clone(p.APIs)
	return p
}

// Clone returns a deep copy of c.
func (c Component) Clone() Component {
	c.Props = slices.Clone(c.Props)
	c.Style = maps.Clone(c.Style)
	return c
}

// ProjectStore is the persisted entity graph of projects, pages and
// components. It is the sole mutator of persisted entities.
//
// AddPage and AddComponent do not enforce path/name uniqueness: callers
// decide update-vs-create before adding. Update and Delete report a
// missing id with ok == false rather than an error; the error return is
// reserved for persistence failures. Every mutation is durable when the
// call returns. List methods return copies the caller may modify.
type ProjectStore interface {
	CreateProject(ctx context.Context, in ProjectInput) (Project, error)
	Projects(ctx context.Context) ([]Project, error)
	Project(ctx context.Context, id string) (Project, error)
	DeleteProject(ctx context.Context, id string) (bool, error)

	AddPage(ctx context.Context, projectID string, in PageInput) (Page, error)
	UpdatePage(ctx context.Context, projectID, id string, u PageUpdate) (Page, bool, error)
	DeletePage(ctx context.Context, projectID, id string) (bool, error)
	ProjectPages(ctx context.Context, projectID string) ([]Page, error)

	AddComponent(ctx context.Context, projectID string, in ComponentInput) (Component, error)
	UpdateComponent(ctx context.Context, projectID, id string, u ComponentUpdate) (Component, bool, error)
	DeleteComponent(ctx context.Context, projectID, id string) (bool, error)
	ProjectComponents(ctx context.Context, projectID string) ([]Component, error)
}

// HistoryStore persists chat history per edited entity.
// LoadHistory returns an empty history for an unknown entity.
type HistoryStore interface {
	LoadHistory(ctx context.Context, entityID string) (ChatHistory, error)
	SaveHistory(ctx context.Context, h ChatHistory) error
}

// FindPage returns the page with the exact route path, if any.
func FindPage(pages []Page, path string) (Page, bool) {
	path = NormalizeRoute(path)
	for _, p := range pages {
		if p.Path == path {
			return p, true
		}
	}
	return Page{}, false
}

// FindComponent returns the component with the exact (case-sensitive) name.
func FindComponent(components []Component, name string) (Component, bool) {
	for _, c := range components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// HomePage returns the page rendered at the project root: "/" or "/home",
// else the first page.
func HomePage(pages []Page) (Page, bool) {
	for _, p := range pages {
		if p.Path == "/" || p.Path == "/home" {
			return p, true
		}
	}
	if len(pages) == 0 {
		return Page{}, false
	}
	return pages[0], true
}
