package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/chat"
	"github.com/fwojciec/builder/config"
	builderjson "github.com/fwojciec/builder/json"
	"github.com/fwojciec/builder/postgres"
	"github.com/fwojciec/builder/preview"
	"github.com/fwojciec/builder/redis"
	"github.com/fwojciec/builder/resolve"
	"go.uber.org/zap"
)

// store is implemented by every store backend.
type store interface {
	builder.ProjectStore
	builder.HistoryStore
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store, func(), error) {
	switch cfg.Driver {
	case "postgres":
		s, err := postgres.Open(ctx, cfg.DSN, postgres.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := builderjson.Open(cfg.Dir, builderjson.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

// previewChannel is a PreviewChannel with a release function.
type previewChannel struct {
	builder.PreviewChannel
	close func() error
}

func openPreview(ctx context.Context, cfg config.PreviewConfig, log *zap.Logger) (previewChannel, error) {
	if cfg.Backend == "redis" {
		ch, err := redis.Dial(ctx, cfg.RedisAddr, redis.WithChannel(cfg.RedisChannel), redis.WithLogger(log))
		if err != nil {
			return previewChannel{}, err
		}
		return previewChannel{PreviewChannel: ch, close: ch.Close}, nil
	}
	return previewChannel{
		PreviewChannel: preview.NewChannel(preview.WithLogger(log)),
		close:          func() error { return nil },
	}, nil
}

func newResolver(cfg config.RulesConfig, s builder.ProjectStore, log *zap.Logger) (*resolve.Resolver, error) {
	opts := []resolve.Option{resolve.WithLogger(log)}
	if cfg.Path != "" {
		rules, err := resolve.LoadRules(cfg.Path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, resolve.WithRules(rules))
	}
	return resolve.New(s, opts...), nil
}

// findTarget looks up the entity to edit: a page by route when ref starts
// with "/", otherwise a component by name. A missing component is created
// empty so a session can start from scratch.
func findTarget(ctx context.Context, s builder.ProjectStore, projectID, ref string) (chat.Target, string, error) {
	if _, err := s.Project(ctx, projectID); err != nil {
		return chat.Target{}, "", fmt.Errorf("project %s: %w", projectID, err)
	}
	if strings.HasPrefix(ref, "/") {
		pages, err := s.ProjectPages(ctx, projectID)
		if err != nil {
			return chat.Target{}, "", err
		}
		p, ok := builder.FindPage(pages, ref)
		if !ok {
			return chat.Target{}, "", fmt.Errorf("page %s: %w", ref, builder.ErrNotFound)
		}
		return chat.Target{Kind: builder.KindPage, ID: p.ID, Content: p.Content}, p.Name + " (" + p.Path + ")", nil
	}

	comps, err := s.ProjectComponents(ctx, projectID)
	if err != nil {
		return chat.Target{}, "", err
	}
	c, ok := builder.FindComponent(comps, ref)
	if !ok {
		c, err = s.AddComponent(ctx, projectID, builder.ComponentInput{Name: ref, Type: builder.ComponentUI})
		if err != nil {
			return chat.Target{}, "", err
		}
	}
	return chat.Target{Kind: builder.KindComponent, ID: c.ID, Content: c.Code}, c.Name, nil
}

// ensureDir creates the parent directory of a file path.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
