package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/builder/export"
	"github.com/fwojciec/builder/s3"
	"github.com/spf13/cobra"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		out    string
		upload bool
	)
	cmd := &cobra.Command{
		Use:   "export PROJECT",
		Short: "Write the project as a Next.js zip archive, or upload it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := openStore(ctx, a.cfg.Store, a.log)
			if err != nil {
				return err
			}
			defer closeStore()

			p, err := s.Project(ctx, args[0])
			if err != nil {
				return fmt.Errorf("project %s: %w", args[0], err)
			}
			pages, err := s.ProjectPages(ctx, p.ID)
			if err != nil {
				return err
			}
			comps, err := s.ProjectComponents(ctx, p.ID)
			if err != nil {
				return err
			}

			if upload {
				ec := a.cfg.Export
				u, err := s3.New(s3.Config{
					Endpoint:  ec.Endpoint,
					Region:    ec.Region,
					AccessKey: ec.AccessKey,
					SecretKey: ec.SecretKey,
					Bucket:    ec.Bucket,
					UseSSL:    ec.UseSSL,
				}, s3.WithLogger(a.log))
				if err != nil {
					return err
				}
				key, err := u.Upload(ctx, p, pages, comps)
				if err != nil {
					return err
				}
				url, err := u.URL(ctx, key, s3.DefaultURLExpiry)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}

			if out == "" {
				out = export.ArchiveName(p)
			}
			if err := ensureDir(out); err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Project(f, p, pages, comps); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			abs, _ := filepath.Abs(out)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", abs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "archive path (defaults to <project-slug>.zip)")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload to the configured S3 bucket and print a download URL")
	return cmd
}
