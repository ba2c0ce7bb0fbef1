package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/config"
	logpkg "github.com/kailas-cloud/propfinder/internal/logger"
	"github.com/kailas-cloud/propfinder/internal/version"
)

type rootOptions struct {
	env      string
	noColor  bool
	verbose  bool
	jsonOut  bool
	dictFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "propfinder-cli",
		Short:         "Natural-language property search from the terminal",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.env, "env", "e", config.GetEnv(), "config environment (config/<env>.yaml)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline decisions to stderr")
	flags.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of a table")
	flags.StringVar(&opts.dictFile, "dictionary", "", "extra vocabulary YAML (overrides config)")

	cmd.AddCommand(
		newExtractCmd(opts),
		newSearchCmd(opts),
		newIndexCmd(opts),
	)
	return cmd
}

// load reads config and builds a logger that stays quiet unless --verbose.
func (o *rootOptions) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if o.dictFile != "" {
		cfg.Extraction.DictionaryFile = o.dictFile
	}

	level := "error"
	if o.verbose {
		level = "debug"
	}
	env := o.env
	if env != "prod" {
		env = "local"
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func withLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return logpkg.ContextWithLogger(ctx, logger)
}
