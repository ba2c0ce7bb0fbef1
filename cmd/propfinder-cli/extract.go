package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/propfinder/internal/app"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
)

type extractOutput struct {
	Language string        `json:"language"`
	Residual string        `json:"residual"`
	Matches  []query.Match `json:"matches"`
	Filters  any           `json:"filters"`
}

// newExtractCmd runs the extractor only; no backend is contacted.
func newExtractCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <query>",
		Short: "Show the filters and residual extracted from a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := app.LoadDictionary(opts.dictFile)
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}
			ex := query.NewExtractor(dict).ExtractText(strings.Join(args, " "))

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, extractOutput{
					Language: string(ex.Query.Language),
					Residual: ex.Residual,
					Matches:  ex.Matches,
					Filters:  ex.Filters,
				})
			}
			printExtraction(out, ex, ex.Filters)
			return nil
		},
	}
}
