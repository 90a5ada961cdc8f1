// Package json implements durable file-backed persistence for projects,
// pages, components and chat history.
//
// State is kept as three JSON blobs, one per collection, rewritten
// atomically (temp file and rename) after every mutating call.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/builder"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Interface compliance checks.
var (
	_ builder.ProjectStore = (*Store)(nil)
	_ builder.HistoryStore = (*Store)(nil)
)

// Store is a [builder.ProjectStore] and [builder.HistoryStore] backed by
// JSON files in one directory. It is safe for concurrent use.
type Store struct {
	dir string
	log *zap.Logger

	mu         sync.Mutex
	projects   []builder.Project
	pages      map[string][]builder.Page
	components map[string][]builder.Component
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used to report write failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open loads the store from dir, creating it if needed. Missing files are
// treated as empty collections.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:        dir,
		log:        zap.NewNop(),
		pages:      make(map[string][]builder.Page),
		components: make(map[string][]builder.Component),
	}
	for _, o := range opts {
		o(s)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("json: create directory: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var pe projectsEnvelope
	if err := readEnvelope(filepath.Join(s.dir, projectsFile), &pe, &pe.Version); err != nil {
		return err
	}
	for _, d := range pe.Projects {
		s.projects = append(s.projects, fromProjectDTO(d))
	}
	var ge pagesEnvelope
	if err := readEnvelope(filepath.Join(s.dir, pagesFile), &ge, &ge.Version); err != nil {
		return err
	}
	for pid, ds := range ge.Pages {
		for _, d := range ds {
			s.pages[pid] = append(s.pages[pid], fromPageDTO(d))
		}
	}
	var ce componentsEnvelope
	if err := readEnvelope(filepath.Join(s.dir, componentsFile), &ce, &ce.Version); err != nil {
		return err
	}
	for pid, ds := range ce.Components {
		for _, d := range ds {
			s.components[pid] = append(s.components[pid], fromComponentDTO(d))
		}
	}
	return nil
}

// readEnvelope decodes path into v. A missing file leaves v untouched.
func readEnvelope(path string, v any, ver *int) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("json: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json: decode %s: %w", filepath.Base(path), err)
	}
	if *ver != version {
		return fmt.Errorf("json: %s: unsupported envelope version: %d", filepath.Base(path), *ver)
	}
	return nil
}

// writeFile writes data atomically via a temp file and rename.
func writeFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) saveProjects() error {
	env := projectsEnvelope{Version: version, Projects: make([]projectDTO, len(s.projects))}
	for i, p := range s.projects {
		env.Projects[i] = toProjectDTO(p)
	}
	return s.write(projectsFile, env)
}

func (s *Store) savePages() error {
	env := pagesEnvelope{Version: version, Pages: make(map[string][]pageDTO, len(s.pages))}
	for pid, ps := range s.pages {
		ds := make([]pageDTO, len(ps))
		for i, p := range ps {
			ds[i] = toPageDTO(p)
		}
		env.Pages[pid] = ds
	}
	return s.write(pagesFile, env)
}

func (s *Store) saveComponents() error {
	env := componentsEnvelope{Version: version, Components: make(map[string][]componentDTO, len(s.components))}
	for pid, cs := range s.components {
		ds := make([]componentDTO, len(cs))
		for i, c := range cs {
			ds[i] = toComponentDTO(c)
		}
		env.Components[pid] = ds
	}
	return s.write(componentsFile, env)
}

func (s *Store) write(name string, v any) error {
	if err := writeFile(filepath.Join(s.dir, name), v); err != nil {
		s.log.Error("store write failed", zap.String("file", name), zap.Error(err))
		return fmt.Errorf("json: save %s: %w", name, err)
	}
	return nil
}

// CreateProject adds a project with a fresh id.
func (s *Store) CreateProject(_ context.Context, in builder.ProjectInput) (builder.Project, error) {
	if err := in.Validate(); err != nil {
		return builder.Project{}, err
	}
	p := builder.Project{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		TechStack:   in.TechStack,
		GitProvider: in.GitProvider,
		RepoName:    in.RepoName,
		CreatedAt:   builder.NextTimestamp(time.Time{}),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p)
	if err := s.saveProjects(); err != nil {
		s.projects = s.projects[:len(s.projects)-1]
		return builder.Project{}, err
	}
	return p, nil
}

// Projects returns all projects in creation order.
func (s *Store) Projects(context.Context) ([]builder.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.projects), nil
}

// Project returns the project with id or an error wrapping
// [builder.ErrNotFound].
func (s *Store) Project(_ context.Context, id string) (builder.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.projectIndex(id); i >= 0 {
		return s.projects[i], nil
	}
	return builder.Project{}, fmt.Errorf("json: project %s: %w", id, builder.ErrNotFound)
}

func (s *Store) projectIndex(id string) int {
	return slices.IndexFunc(s.projects, func(p builder.Project) bool { return p.ID == id })
}

// DeleteProject removes a project together with its pages and components.
// When a write fails the project is kept.
func (s *Store) DeleteProject(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.projectIndex(id)
	if i < 0 {
		return false, nil
	}
	oldProjects, oldPages, oldComps := s.projects, s.pages[id], s.components[id]
	s.projects = slices.Delete(slices.Clone(s.projects), i, i+1)
	delete(s.pages, id)
	delete(s.components, id)
	if err := errors.Join(s.saveProjects(), s.savePages(), s.saveComponents()); err != nil {
		s.projects = oldProjects
		if oldPages != nil {
			s.pages[id] = oldPages
		}
		if oldComps != nil {
			s.components[id] = oldComps
		}
		// Best effort to put disk back in line with memory.
		if rerr := errors.Join(s.saveProjects(), s.savePages(), s.saveComponents()); rerr != nil {
			s.log.Error("restore after failed project delete", zap.String("id", id), zap.Error(rerr))
		}
		return false, err
	}
	return true, nil
}

// AddPage adds a page with a fresh id. It does not check path uniqueness.
func (s *Store) AddPage(_ context.Context, projectID string, in builder.PageInput) (builder.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projectIndex(projectID) < 0 {
		return builder.Page{}, fmt.Errorf("json: project %s: %w", projectID, builder.ErrNotFound)
	}
	now := builder.NextTimestamp(time.Time{})
	p := builder.Page{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Name:        in.Name,
		Path:        builder.NormalizeRoute(in.Path),
		Content:     in.Content,
		Components:  slices.Clone(in.Components),
		APIs:        slices.Clone(in.APIs),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	old := s.pages[projectID]
	s.pages[projectID] = append(slices.Clone(old), p)
	if err := s.savePages(); err != nil {
		s.pages[projectID] = old
		return builder.Page{}, err
	}
	return p.Clone(), nil
}

// UpdatePage merges u over the page and stamps UpdatedAt. It reports
// ok == false when the page does not exist.
func (s *Store) UpdatePage(_ context.Context, projectID, id string, u builder.PageUpdate) (builder.Page, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.pages[projectID]
	i := slices.IndexFunc(old, func(p builder.Page) bool { return p.ID == id })
	if i < 0 {
		return builder.Page{}, false, nil
	}
	pages := slices.Clone(old)
	p := pages[i].Clone()
	u.Apply(&p)
	p.UpdatedAt = builder.NextTimestamp(p.UpdatedAt)
	pages[i] = p
	s.pages[projectID] = pages
	if err := s.savePages(); err != nil {
		s.pages[projectID] = old
		return builder.Page{}, false, err
	}
	return p.Clone(), true, nil
}

// DeletePage removes a page. It has no effect on other entities.
func (s *Store) DeletePage(_ context.Context, projectID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.pages[projectID]
	i := slices.IndexFunc(old, func(p builder.Page) bool { return p.ID == id })
	if i < 0 {
		return false, nil
	}
	s.pages[projectID] = slices.Delete(slices.Clone(old), i, i+1)
	if err := s.savePages(); err != nil {
		s.pages[projectID] = old
		return false, err
	}
	return true, nil
}

// ProjectPages returns a copy of the project's pages.
func (s *Store) ProjectPages(_ context.Context, projectID string) ([]builder.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]builder.Page, len(s.pages[projectID]))
	for i, p := range s.pages[projectID] {
		out[i] = p.Clone()
	}
	return out, nil
}

// AddComponent adds a component with a fresh id. It does not check name
// uniqueness. An empty Type defaults to [builder.ComponentUI].
func (s *Store) AddComponent(_ context.Context, projectID string, in builder.ComponentInput) (builder.Component, error) {
	if strings.TrimSpace(in.Name) == "" {
		return builder.Component{}, fmt.Errorf("json: component name must not be empty: %w", builder.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projectIndex(projectID) < 0 {
		return builder.Component{}, fmt.Errorf("json: project %s: %w", projectID, builder.ErrNotFound)
	}
	typ := in.Type
	if typ == "" {
		typ = builder.ComponentUI
	}
	now := builder.NextTimestamp(time.Time{})
	c := builder.Component{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      in.Name,
		Type:      typ,
		Code:      in.Code,
		Preview:   in.Preview,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Props = slices.Clone(in.Props)
	c.Style = maps.Clone(in.Style)
	old := s.components[projectID]
	s.components[projectID] = append(slices.Clone(old), c)
	if err := s.saveComponents(); err != nil {
		s.components[projectID] = old
		return builder.Component{}, err
	}
	return c.Clone(), nil
}

// UpdateComponent merges u over the component and stamps UpdatedAt. It
// reports ok == false when the component does not exist.
func (s *Store) UpdateComponent(_ context.Context, projectID, id string, u builder.ComponentUpdate) (builder.Component, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.components[projectID]
	i := slices.IndexFunc(old, func(c builder.Component) bool { return c.ID == id })
	if i < 0 {
		return builder.Component{}, false, nil
	}
	comps := slices.Clone(old)
	c := comps[i].Clone()
	u.Apply(&c)
	c.UpdatedAt = builder.NextTimestamp(c.UpdatedAt)
	comps[i] = c
	s.components[projectID] = comps
	if err := s.saveComponents(); err != nil {
		s.components[projectID] = old
		return builder.Component{}, false, err
	}
	return c.Clone(), true, nil
}

// DeleteComponent removes a component. It has no effect on other entities.
func (s *Store) DeleteComponent(_ context.Context, projectID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.components[projectID]
	i := slices.IndexFunc(old, func(c builder.Component) bool { return c.ID == id })
	if i < 0 {
		return false, nil
	}
	s.components[projectID] = slices.Delete(slices.Clone(old), i, i+1)
	if err := s.saveComponents(); err != nil {
		s.components[projectID] = old
		return false, err
	}
	return true, nil
}

// ProjectComponents returns a copy of the project's components.
func (s *Store) ProjectComponents(_ context.Context, projectID string) ([]builder.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]builder.Component, len(s.components[projectID]))
	for i, c := range s.components[projectID] {
		out[i] = c.Clone()
	}
	return out, nil
}
