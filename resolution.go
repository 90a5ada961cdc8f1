package builder

import "fmt"

// Kind classifies an artifact by its target in the project.
type Kind string

const (
	KindPage      Kind = "page"
	KindComponent Kind = "component"
	KindStyle     Kind = "style"
	KindConfig    Kind = "config"
)

// ParseKind parses a kind name. It reports false for unknown names.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindPage, KindComponent, KindStyle, KindConfig:
		return k, true
	}
	return "", false
}

// Action is the store operation a resolution maps to.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Resolution is the classified identity of a code block and the operation
// it maps to against the current store state.
type Resolution struct {
	Block    CodeBlock
	Kind     Kind
	Action   Action
	Route    string // page route; set for KindPage
	Name     string // component name for KindComponent, display name for KindPage
	TargetID string // existing entity id when Action is ActionUpdate
	Warnings []string
}

// Identity returns the key the resolution is matched on: the route for
// pages, the name for components and the file path otherwise.
func (r Resolution) Identity() string {
	switch r.Kind {
	case KindPage:
		return r.Route
	case KindComponent:
		return r.Name
	default:
		return r.Block.FilePath
	}
}

// String returns a short human-readable description.
func (r Resolution) String() string {
	return fmt.Sprintf("%s %s %s", r.Action, r.Kind, r.Identity())
}

// Applied is the outcome of applying one resolution.
type Applied struct {
	Resolution Resolution
	Page       *Page
	Component  *Component
	// Skipped is true for kinds with no store entity (style, config).
	Skipped bool
}
