package main

import (
	"fmt"

	"github.com/fwojciec/builder/html"
	"github.com/fwojciec/builder/preview"
	"github.com/spf13/cobra"
)

func newWatchCommand(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the preview markup every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pc, err := openPreview(ctx, a.cfg.Preview, a.log)
			if err != nil {
				return err
			}
			defer pc.close()

			r := html.NewRenderer(html.WithLogger(a.log))
			out := cmd.OutOrStdout()
			for content := range preview.Poll(ctx, pc, a.cfg.Preview.PollInterval, a.log) {
				if raw {
					fmt.Fprintln(out, content)
					continue
				}
				fmt.Fprintln(out, r.Render("Preview", content))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the published source instead of rendered HTML")
	return cmd
}
