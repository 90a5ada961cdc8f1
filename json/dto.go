package json

import (
	"time"

	"github.com/fwojciec/builder"
)

const version = 1

// File names of the three persisted collections.
const (
	projectsFile   = "projects.json"
	pagesFile      = "project_pages.json"
	componentsFile = "project_components.json"
	historyDir     = "history"
)

type projectsEnvelope struct {
	Version  int          `json:"version"`
	Projects []projectDTO `json:"projects"`
}

type pagesEnvelope struct {
	Version int                  `json:"version"`
	Pages   map[string][]pageDTO `json:"pages"`
}

type componentsEnvelope struct {
	Version    int                       `json:"version"`
	Components map[string][]componentDTO `json:"components"`
}

type historyEnvelope struct {
	Version   int          `json:"version"`
	EntityID  string       `json:"entity_id"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

type techStackDTO struct {
	UI         string `json:"ui"`
	State      string `json:"state"`
	Validation string `json:"validation"`
}

type projectDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	TechStack   techStackDTO `json:"tech_stack"`
	GitProvider string       `json:"git_provider,omitempty"`
	RepoName    string       `json:"repo_name,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type pageDTO struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Content     string    `json:"content"`
	Components  []string  `json:"components"`
	APIs        []string  `json:"apis"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type propDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type componentDTO struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Code      string            `json:"code"`
	Props     []propDTO         `json:"props"`
	Style     map[string]string `json:"style,omitempty"`
	Preview   string            `json:"preview,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type codeBlockDTO struct {
	FilePath string `json:"file_path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

type messageDTO struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	CodeBlocks []codeBlockDTO `json:"code_blocks,omitempty"`
}

func toProjectDTO(p builder.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		TechStack:   techStackDTO(p.TechStack),
		GitProvider: p.GitProvider,
		RepoName:    p.RepoName,
		CreatedAt:   p.CreatedAt,
	}
}

func fromProjectDTO(d projectDTO) builder.Project {
	return builder.Project{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		TechStack:   builder.TechStack(d.TechStack),
		GitProvider: d.GitProvider,
		RepoName:    d.RepoName,
		CreatedAt:   d.CreatedAt,
	}
}

func toPageDTO(p builder.Page) pageDTO {
	return pageDTO{
		ID:          p.ID,
		ProjectID:   p.ProjectID,
		Name:        p.Name,
		Path:        p.Path,
		Content:     p.Content,
		Components:  nonNil(p.Components),
		APIs:        nonNil(p.APIs),
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPageDTO(d pageDTO) builder.Page {
	return builder.Page{
		ID:          d.ID,
		ProjectID:   d.ProjectID,
		Name:        d.Name,
		Path:        d.Path,
		Content:     d.Content,
		Components:  d.Components,
		APIs:        d.APIs,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toComponentDTO(c builder.Component) componentDTO {
	props := make([]propDTO, len(c.Props))
	for i, p := range c.Props {
		props[i] = propDTO(p)
	}
	return componentDTO{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Name:      c.Name,
		Type:      string(c.Type),
		Code:      c.Code,
		Props:     props,
		Style:     c.Style,
		Preview:   c.Preview,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromComponentDTO(d componentDTO) builder.Component {
	var props []builder.Prop
	for _, p := range d.Props {
		props = append(props, builder.Prop(p))
	}
	return builder.Component{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		Name:      d.Name,
		Type:      builder.ComponentType(d.Type),
		Code:      d.Code,
		Props:     props,
		Style:     d.Style,
		Preview:   d.Preview,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toMessageDTO(m builder.ChatMessage) messageDTO {
	var blocks []codeBlockDTO
	for _, b := range m.CodeBlocks {
		blocks = append(blocks, codeBlockDTO(b))
	}
	return messageDTO{
		ID:         m.ID,
		Role:       string(m.Role),
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		CodeBlocks: blocks,
	}
}

func fromMessageDTO(d messageDTO) builder.ChatMessage {
	var blocks []builder.CodeBlock
	for _, b := range d.CodeBlocks {
		blocks = append(blocks, builder.CodeBlock(b))
	}
	return builder.ChatMessage{
		ID:         d.ID,
		Role:       builder.Role(d.Role),
		Content:    d.Content,
		Timestamp:  d.Timestamp,
		CodeBlocks: blocks,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
