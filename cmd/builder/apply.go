package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newApplyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply PROJECT TARGET",
		Short: "Apply the artifacts of the last reply in a target's chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := openSession(ctx, a, args[0], args[1])
			if err != nil {
				return err
			}
			defer w.Close()

			out := cmd.OutOrStdout()
			if len(w.session.Pending()) == 0 {
				fmt.Fprintln(out, "Nothing to apply.")
				return nil
			}
			applied, errs := w.session.Apply(ctx)
			for _, ap := range applied {
				if ap.Skipped {
					fmt.Fprintf(out, "preview only %s\n", ap.Resolution.Block.FilePath)
					continue
				}
				fmt.Fprintln(out, ap.Resolution)
			}
			return errors.Join(errs...)
		},
	}
}
