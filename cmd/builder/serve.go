package main

import (
	"fmt"

	"github.com/fwojciec/builder/html"
	builderhttp "github.com/fwojciec/builder/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the preview render surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				a.cfg.Preview.Addr = addr
			}
			s, closeStore, err := openStore(ctx, a.cfg.Store, a.log)
			if err != nil {
				return err
			}
			defer closeStore()
			pc, err := openPreview(ctx, a.cfg.Preview, a.log)
			if err != nil {
				return err
			}
			defer pc.close()

			srv := builderhttp.NewServer(pc,
				builderhttp.WithStore(s),
				builderhttp.WithRenderer(html.NewRenderer(html.WithLogger(a.log))),
				builderhttp.WithAllowedOrigins(a.cfg.Preview.AllowedOrigins...),
				builderhttp.WithLogger(a.log),
			)
			a.log.Info("serving preview", zap.String("addr", a.cfg.Preview.Addr), zap.String("backend", a.cfg.Preview.Backend))
			if err := srv.Run(ctx, a.cfg.Preview.Addr); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides preview.addr)")
	return cmd
}
