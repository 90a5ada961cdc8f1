// Command builder creates Next.js projects and edits their pages and
// components by chatting with an AI collaborator.
//
// Usage:
//
//	builder new "My Shop"           create a project from the basic template
//	builder list                    list projects
//	builder chat PROJECT /about     edit a page (or a component by name)
//	builder apply PROJECT /about    apply the last reply without the TUI
//	builder serve                   run the preview render surface
//	builder export PROJECT          write or upload the project archive
//	builder watch                   print preview markup as it changes
//
// Configuration is read from builder.yaml and the environment, see the
// config package.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fwojciec/builder/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every command needs after the root pre-run.
type app struct {
	configPath string
	logLevel   string
	logFile    string
	provider   string
	model      string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "builder: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "builder",
		Short:         "Build Next.js projects by chatting with an AI collaborator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", config.DefaultPath, "configuration file")
	f.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")
	f.StringVar(&a.provider, "provider", "", "AI provider: anthropic, gemini or openai")
	f.StringVar(&a.model, "model", "", "model ID (provider default if empty)")

	root.AddCommand(
		newNewCommand(a),
		newListCommand(a),
		newChatCommand(a),
		newApplyCommand(a),
		newServeCommand(a),
		newExportCommand(a),
		newWatchCommand(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = a.logFile
	}
	if flags.Changed("provider") {
		cfg.Provider.Name = a.provider
	}
	if flags.Changed("model") {
		cfg.Provider.Model = a.model
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}
