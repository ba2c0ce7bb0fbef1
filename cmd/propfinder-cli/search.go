package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/propfinder/internal/app"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/search/request"
)

type searchOptions struct {
	limit    int
	city     string
	typ      string
	features []string
	timeout  time.Duration
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	so := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a full search against the configured backends",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), so.timeout)
			defer cancel()
			ctx = withLogger(ctx, logger)

			a, err := app.Build(ctx, &cfg, logger)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}
			defer a.Close()

			req, err := request.New(strings.Join(args, " "), so.explicit(), so.limit)
			if err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}
			resp, err := a.Search.Search(ctx, &req)
			if err != nil {
				return err //nolint:wrapcheck // pipeline errors are already wrapped
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), toJSON(resp))
			}
			printResults(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&so.limit, "limit", "n", request.DefaultLimit, "maximum number of results")
	f.StringVar(&so.city, "city", "", "explicit city filter")
	f.StringVar(&so.typ, "type", "", "explicit property type filter")
	f.StringSliceVar(&so.features, "feature", nil, "explicit feature filter (repeatable)")
	f.DurationVar(&so.timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

// explicit returns nil when no filter flag is set.
func (o *searchOptions) explicit() *property.Filters {
	f := property.Filters{City: o.city, PropertyType: property.Type(o.typ), Features: o.features}
	if f.IsEmpty() {
		return nil
	}
	return &f
}
