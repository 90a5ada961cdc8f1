package mock

import (
	"context"

	"github.com/fwojciec/builder"
)

// Store is a test double for builder.ProjectStore.
type Store struct {
	CreateProjectFn func(ctx context.Context, in builder.ProjectInput) (builder.Project, error)
	ProjectsFn      func(ctx context.Context) ([]builder.Project, error)
	ProjectFn       func(ctx context.Context, id string) (builder.Project, error)
	DeleteProjectFn func(ctx context.Context, id string) (bool, error)

	AddPageFn      func(ctx context.Context, projectID string, in builder.PageInput) (builder.Page, error)
	UpdatePageFn   func(ctx context.Context, projectID, id string, u builder.PageUpdate) (builder.Page, bool, error)
	DeletePageFn   func(ctx context.Context, projectID, id string) (bool, error)
	ProjectPagesFn func(ctx context.Context, projectID string) ([]builder.Page, error)

	AddComponentFn      func(ctx context.Context, projectID string, in builder.ComponentInput) (builder.Component, error)
	UpdateComponentFn   func(ctx context.Context, projectID, id string, u builder.ComponentUpdate) (builder.Component, bool, error)
	DeleteComponentFn   func(ctx context.Context, projectID, id string) (bool, error)
	ProjectComponentsFn func(ctx context.Context, projectID string) ([]builder.Component, error)
}

// CreateProject delegates to CreateProjectFn.
func (s *Store) CreateProject(ctx context.Context, in builder.ProjectInput) (builder.Project, error) {
	return s.CreateProjectFn(ctx, in)
}

// Projects delegates to ProjectsFn.
func (s *Store) Projects(ctx context.Context) ([]builder.Project, error) {
	return s.ProjectsFn(ctx)
}

// Project delegates to ProjectFn.
func (s *Store) Project(ctx context.Context, id string) (builder.Project, error) {
	return s.ProjectFn(ctx, id)
}

// DeleteProject delegates to DeleteProjectFn.
func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	return s.DeleteProjectFn(ctx, id)
}

// AddPage delegates to AddPageFn.
func (s *Store) AddPage(ctx context.Context, projectID string, in builder.PageInput) (builder.Page, error) {
	return s.AddPageFn(ctx, projectID, in)
}

// UpdatePage delegates to UpdatePageFn.
func (s *Store) UpdatePage(ctx context.Context, projectID, id string, u builder.PageUpdate) (builder.Page, bool, error) {
	return s.UpdatePageFn(ctx, projectID, id, u)
}

// DeletePage delegates to DeletePageFn.
func (s *Store) DeletePage(ctx context.Context, projectID, id string) (bool, error) {
	return s.DeletePageFn(ctx, projectID, id)
}

// ProjectPages delegates to ProjectPagesFn.
func (s *Store) ProjectPages(ctx context.Context, projectID string) ([]builder.Page, error) {
	return s.ProjectPagesFn(ctx, projectID)
}

// AddComponent delegates to AddComponentFn.
func (s *Store) AddComponent(ctx context.Context, projectID string, in builder.ComponentInput) (builder.Component, error) {
	return s.AddComponentFn(ctx, projectID, in)
}

// UpdateComponent delegates to UpdateComponentFn.
func (s *Store) UpdateComponent(ctx context.Context, projectID, id string, u builder.ComponentUpdate) (builder.Component, bool, error) {
	return s.UpdateComponentFn(ctx, projectID, id, u)
}

// DeleteComponent delegates to DeleteComponentFn.
func (s *Store) DeleteComponent(ctx context.Context, projectID, id string) (bool, error) {
	return s.DeleteComponentFn(ctx, projectID, id)
}

// ProjectComponents delegates to ProjectComponentsFn.
func (s *Store) ProjectComponents(ctx context.Context, projectID string) ([]builder.Component, error) {
	return s.ProjectComponentsFn(ctx, projectID)
}

// HistoryStore is a test double for builder.HistoryStore.
type HistoryStore struct {
	LoadHistoryFn func(ctx context.Context, entityID string) (builder.ChatHistory, error)
	SaveHistoryFn func(ctx context.Context, h builder.ChatHistory) error
}

// LoadHistory delegates to LoadHistoryFn.
func (s *HistoryStore) LoadHistory(ctx context.Context, entityID string) (builder.ChatHistory, error) {
	return s.LoadHistoryFn(ctx, entityID)
}

// SaveHistory delegates to SaveHistoryFn.
func (s *HistoryStore) SaveHistory(ctx context.Context, h builder.ChatHistory) error {
	return s.SaveHistoryFn(ctx, h)
}

// PreviewChannel is a test double for builder.PreviewChannel.
type PreviewChannel struct {
	PublishFn   func(ctx context.Context, content string) error
	LatestFn    func(ctx context.Context) (string, error)
	SubscribeFn func(ctx context.Context) (<-chan string, error)
}

// Publish delegates to PublishFn.
func (p *PreviewChannel) Publish(ctx context.Context, content string) error {
	return p.PublishFn(ctx, content)
}

// Latest delegates to LatestFn.
func (p *PreviewChannel) Latest(ctx context.Context) (string, error) {
	return p.LatestFn(ctx)
}

// Subscribe delegates to SubscribeFn.
func (p *PreviewChannel) Subscribe(ctx context.Context) (<-chan string, error) {
	return p.SubscribeFn(ctx)
}
