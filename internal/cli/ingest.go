package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch the source once and print the resulting corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Ingest.Ingest(cmd.Context())
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			out := cmd.OutOrStdout()
			renderArticles(out, result.Articles)
			_, err = fmt.Fprintf(out, "candidates=%d created=%d existing=%d failed=%d\n",
				result.Candidates, result.Created, result.Existing, result.Failed)
			return err
		},
	}
}

func newArticlesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "articles",
		Short: "List stored articles without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			articles, err := app.Articles.ListAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("list articles: %w", err)
			}

			renderArticles(cmd.OutOrStdout(), articles)
			return nil
		},
	}
}
