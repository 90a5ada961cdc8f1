package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/builder"
	"github.com/spf13/cobra"
)

func newNewCommand(a *app) *cobra.Command {
	var in builder.ProjectInput
	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a project with the basic template pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := openStore(ctx, a.cfg.Store, a.log)
			if err != nil {
				return err
			}
			defer closeStore()

			in.Name = args[0]
			p, pages, err := builder.SetupProject(ctx, s, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created project %s (%s)\n", p.Name, p.ID)
			for _, pg := range pages {
				fmt.Fprintf(out, "  %-10s %s\n", pg.Path, pg.Name)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Description, "description", "", "project description")
	f.StringVar(&in.TechStack.UI, "ui", "", "UI library, e.g. \"Material UI\"")
	f.StringVar(&in.TechStack.State, "state", "", "state management, e.g. \"Redux Toolkit\"")
	f.StringVar(&in.TechStack.Validation, "validation", "", "validation library, e.g. \"Zod\"")
	f.StringVar(&in.GitProvider, "git-provider", "", "git hosting provider")
	f.StringVar(&in.RepoName, "repo", "", "repository name (defaults to the slugged project name)")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, closeStore, err := openStore(ctx, a.cfg.Store, a.log)
			if err != nil {
				return err
			}
			defer closeStore()

			projects, err := s.Projects(ctx)
			if err != nil {
				return err
			}
			t := table.New().Headers("ID", "NAME", "PAGES", "COMPONENTS", "CREATED")
			for _, p := range projects {
				pages, err := s.ProjectPages(ctx, p.ID)
				if err != nil {
					return err
				}
				comps, err := s.ProjectComponents(ctx, p.ID)
				if err != nil {
					return err
				}
				t.Row(p.ID, p.Name, strconv.Itoa(len(pages)), strconv.Itoa(len(comps)), p.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
