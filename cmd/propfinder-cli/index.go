package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/propfinder/internal/app"
	vectorrepo "github.com/kailas-cloud/propfinder/internal/repository/vector"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the listing vector index",
	}
	var recreate bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the listing vector index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store, err := app.OpenVectorStore(cmd.Context(), &cfg, logger)
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}
			defer store.Close()

			repo := vectorrepo.New(store)
			if recreate {
				if err := repo.DropIndex(cmd.Context()); err != nil {
					return err //nolint:wrapcheck // already descriptive
				}
			}
			created, err := repo.EnsureIndex(cmd.Context(), cfg.Embedding.Dimensions)
			if err != nil {
				return fmt.Errorf("create index: %w", err)
			}

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "%s %s (dim %d)\n",
					valueColor.Sprint("created"), vectorrepo.IndexName, cfg.Embedding.Dimensions)
				return nil
			}
			fmt.Fprintf(out, "%s %s already exists\n", warnColor.Sprint("skipped"), vectorrepo.IndexName)
			return nil
		},
	}
	create.Flags().BoolVar(&recreate, "recreate", false, "drop the index first (listing hashes are kept)")
	cmd.AddCommand(create)
	return cmd
}
