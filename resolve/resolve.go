// Package resolve turns parsed code blocks into create-or-update operations
// against a [builder.ProjectStore].
//
// Classification is driven by a [Rules] table. Identity is the page route
// or component name derived from the file path or the code itself. Apply
// re-checks existence at apply time so that two applies of one identity
// never create duplicates within a process.
package resolve

import (
	"context"
	"fmt"
	"sync"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
)

// Resolver classifies code blocks and applies them to a store.
type Resolver struct {
	store builder.ProjectStore
	rules Rules
	log   *zap.Logger

	// mu serializes lookup-then-write in Apply.
	mu sync.Mutex
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithRules replaces the default classification table.
func WithRules(rs Rules) Option {
	return func(r *Resolver) { r.rules = rs }
}

// WithLogger sets the logger for warnings and unresolved blocks.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// New creates a Resolver over store.
func New(store builder.ProjectStore, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		rules: DefaultRules(),
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve classifies b, derives its identity and decides create or update
// against the current store state. Blocks that cannot be classified return
// an error wrapping [builder.ErrUnresolved].
func (r *Resolver) Resolve(ctx context.Context, projectID string, b builder.CodeBlock) (builder.Resolution, error) {
	res, err := r.identify(b)
	if err != nil {
		r.log.Info("unresolved code block", zap.String("path", b.FilePath), zap.String("language", b.Language))
		return res, err
	}
	if err := r.lookup(ctx, projectID, &res); err != nil {
		return res, err
	}
	for _, w := range res.Warnings {
		r.log.Warn("resolution warning", zap.String("path", b.FilePath), zap.String("identity", res.Identity()), zap.String("warning", w))
	}
	return res, nil
}

// identify classifies b and derives its identity without touching the store.
func (r *Resolver) identify(b builder.CodeBlock) (builder.Resolution, error) {
	res := builder.Resolution{Block: b}
	kind, ok := r.rules.Classify(b)
	if !ok {
		return res, fmt.Errorf("resolve: %q: %w", b.FilePath, builder.ErrUnresolved)
	}
	res.Kind = kind
	p, _ := cleanFilePath(b.FilePath)
	switch kind {
	case builder.KindPage:
		fn := defaultExportName(b.Content)
		fromPath := routeFromPath(p)
		res.Route = routeFromName(fn)
		if res.Route == "" {
			res.Route = fromPath
		} else if res.Route != fromPath {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("route %s from %s differs from path route %s", res.Route, fn, fromPath))
		}
		res.Name = pageName(fn, res.Route)
	case builder.KindComponent:
		res.Name = componentName(p)
		if !builder.IsPascalCase(res.Name) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("component name %q should be PascalCase", res.Name))
		}
	}
	return res, nil
}

// lookup sets Action and TargetID from the current store state.
func (r *Resolver) lookup(ctx context.Context, projectID string, res *builder.Resolution) error {
	res.Action, res.TargetID = builder.ActionCreate, ""
	switch res.Kind {
	case builder.KindPage:
		pages, err := r.store.ProjectPages(ctx, projectID)
		if err != nil {
			return fmt.Errorf("resolve: list pages: %w", err)
		}
		if p, ok := builder.FindPage(pages, res.Route); ok {
			res.Action, res.TargetID = builder.ActionUpdate, p.ID
		}
	case builder.KindComponent:
		comps, err := r.store.ProjectComponents(ctx, projectID)
		if err != nil {
			return fmt.Errorf("resolve: list components: %w", err)
		}
		if c, ok := builder.FindComponent(comps, res.Name); ok {
			res.Action, res.TargetID = builder.ActionUpdate, c.ID
		}
	}
	return nil
}

// Apply writes a resolution through the store. Existence is re-checked at
// apply time: an entity created since Resolve is updated, and an update
// target deleted since Resolve is re-created. Updates replace only the
// page content or component code. Style and config resolutions have no
// store entity and are reported as skipped.
func (r *Resolver) Apply(ctx context.Context, projectID string, res builder.Resolution) (builder.Applied, error) {
	if res.Kind == builder.KindStyle || res.Kind == builder.KindConfig {
		return builder.Applied{Resolution: res, Skipped: true}, nil
	}
	if res.Kind != builder.KindPage && res.Kind != builder.KindComponent {
		return builder.Applied{Resolution: res}, fmt.Errorf("resolve: %q: %w", res.Block.FilePath, builder.ErrUnresolved)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return builder.Applied{Resolution: res}, err
	}
	if err := r.lookup(ctx, projectID, &res); err != nil {
		return builder.Applied{Resolution: res}, err
	}
	if res.Kind == builder.KindPage {
		return r.applyPage(ctx, projectID, res)
	}
	return r.applyComponent(ctx, projectID, res)
}

func (r *Resolver) applyPage(ctx context.Context, projectID string, res builder.Resolution) (builder.Applied, error) {
	content := res.Block.Content
	if res.Action == builder.ActionUpdate {
		p, ok, err := r.store.UpdatePage(ctx, projectID, res.TargetID, builder.PageUpdate{Content: &content})
		if err != nil {
			return builder.Applied{Resolution: res}, fmt.Errorf("resolve: update page %s: %w", res.Route, err)
		}
		if ok {
			return builder.Applied{Resolution: res, Page: &p}, nil
		}
		res.Action, res.TargetID = builder.ActionCreate, ""
	}
	p, err := r.store.AddPage(ctx, projectID, builder.PageInput{
		Name:        res.Name,
		Path:        res.Route,
		Content:     content,
		Components:  referencedComponents(content),
		Description: fmt.Sprintf("Generated page for route %s", res.Route),
	})
	if err != nil {
		return builder.Applied{Resolution: res}, fmt.Errorf("resolve: add page %s: %w", res.Route, err)
	}
	res.TargetID = p.ID
	return builder.Applied{Resolution: res, Page: &p}, nil
}

func (r *Resolver) applyComponent(ctx context.Context, projectID string, res builder.Resolution) (builder.Applied, error) {
	code := res.Block.Content
	if res.Action == builder.ActionUpdate {
		c, ok, err := r.store.UpdateComponent(ctx, projectID, res.TargetID, builder.ComponentUpdate{Code: &code})
		if err != nil {
			return builder.Applied{Resolution: res}, fmt.Errorf("resolve: update component %s: %w", res.Name, err)
		}
		if ok {
			return builder.Applied{Resolution: res, Component: &c}, nil
		}
		res.Action, res.TargetID = builder.ActionCreate, ""
	}
	c, err := r.store.AddComponent(ctx, projectID, builder.ComponentInput{
		Name:  res.Name,
		Type:  builder.ComponentUI,
		Code:  code,
		Props: extractProps(code, res.Name),
	})
	if err != nil {
		return builder.Applied{Resolution: res}, fmt.Errorf("resolve: add component %s: %w", res.Name, err)
	}
	res.TargetID = c.ID
	return builder.Applied{Resolution: res, Component: &c}, nil
}

// ApplyAll resolves and applies blocks sequentially in emission order, so a
// later block observes the store state left by earlier ones. A failure of
// one block is collected and never aborts the batch; cancellation stops
// before the next block.
func (r *Resolver) ApplyAll(ctx context.Context, projectID string, blocks []builder.CodeBlock) ([]builder.Applied, []error) {
	var applied []builder.Applied
	var errs []error
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := r.Resolve(ctx, projectID, b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a, err := r.Apply(ctx, projectID, res)
		if err != nil {
			r.log.Error("apply failed", zap.String("path", b.FilePath), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		applied = append(applied, a)
	}
	return applied, errs
}
