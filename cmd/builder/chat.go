package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fwojciec/builder"
	bt "github.com/fwojciec/builder/bubbletea"
	"github.com/fwojciec/builder/chat"
	"github.com/fwojciec/builder/html"
	builderhttp "github.com/fwojciec/builder/http"
	"github.com/fwojciec/builder/preview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChatCommand(a *app) *cobra.Command {
	var serve bool
	cmd := &cobra.Command{
		Use:   "chat PROJECT TARGET",
		Short: "Edit a page (by route, e.g. /about) or a component (by name)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// The chat UI owns the terminal.
			if a.cfg.Log.File == "" {
				logCfg := a.cfg.Log
				logCfg.File = filepath.Join(a.cfg.Store.Dir, "builder.log")
				if err := ensureDir(logCfg.File); err != nil {
					return err
				}
				log, err := newLogger(logCfg)
				if err != nil {
					return err
				}
				a.log = log
			}

			w, err := openSession(ctx, a, args[0], args[1])
			if err != nil {
				return err
			}
			defer w.Close()

			surface := a.cfg.Preview.SurfaceURL
			if serve && a.cfg.Preview.Backend == "memory" {
				srv := builderhttp.NewServer(w.preview,
					builderhttp.WithStore(w.store),
					builderhttp.WithRenderer(html.NewRenderer(html.WithLogger(a.log))),
					builderhttp.WithAllowedOrigins(a.cfg.Preview.AllowedOrigins...),
					builderhttp.WithLogger(a.log),
				)
				go func() {
					if err := srv.Run(ctx, a.cfg.Preview.Addr); err != nil {
						a.log.Error("preview server stopped", zap.Error(err))
					}
				}()
				if surface == "" {
					surface = "http://" + a.cfg.Preview.Addr + "/healthz"
				}
			}

			var status <-chan bool
			if surface != "" {
				mon := preview.NewMonitor(
					preview.HTTPCheck(http.DefaultClient, surface, 2*time.Second),
					preview.WithInterval(a.cfg.Preview.HealthInterval),
					preview.WithMonitorLogger(a.log),
				)
				go mon.Run(ctx)
				status = mon.Changes()
			}

			send, apply := bt.SessionFuncs(w.session)
			m := bt.New(send, apply, builder.DefaultTheme(),
				bt.WithHistory(w.session.Messages()),
				bt.WithTitle(w.label),
			)
			if err := bt.Run(ctx, m, status); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&serve, "serve", true, "serve the preview in-process when the preview backend is memory")
	return cmd
}

// workspace is a chat session with the resources behind it.
type workspace struct {
	session *chat.Session
	label   string
	preview previewChannel
	store   store
	closers []func()
}

func (w *workspace) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

// openSession wires a chat session for the target and restores its
// history.
func openSession(ctx context.Context, a *app, projectID, ref string) (_ *workspace, err error) {
	w := &workspace{}
	defer func() {
		if err != nil {
			w.Close()
		}
	}()

	provider, err := resolveProvider(ctx, a.cfg.Provider, a.log)
	if err != nil {
		return nil, err
	}
	s, closeStore, err := openStore(ctx, a.cfg.Store, a.log)
	if err != nil {
		return nil, err
	}
	w.store = s
	w.closers = append(w.closers, closeStore)
	pc, err := openPreview(ctx, a.cfg.Preview, a.log)
	if err != nil {
		return nil, err
	}
	w.preview = pc
	w.closers = append(w.closers, func() { _ = pc.close() })

	resolver, err := newResolver(a.cfg.Rules, s, a.log)
	if err != nil {
		return nil, err
	}
	target, label, err := findTarget(ctx, s, projectID, ref)
	if err != nil {
		return nil, err
	}
	w.label = label

	opts := []chat.Option{
		chat.WithHistory(s),
		chat.WithPreview(pc),
		chat.WithModel(a.cfg.Provider.Model),
		chat.WithLogger(a.log),
	}
	if a.cfg.Provider.Batch {
		opts = append(opts, chat.WithCompleter(provider))
	}
	w.session = chat.New(provider, resolver, projectID, target, opts...)
	if err := w.session.Load(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
