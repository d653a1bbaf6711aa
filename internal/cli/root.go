// Package cli implements the headlines command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/headlines/internal/bootstrap"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	debug      bool
}

func (o *globalOptions) bootstrap(ctx context.Context, migrate bool) (*bootstrap.App, error) {
	return bootstrap.New(ctx, bootstrap.Options{
		ConfigPath: o.configPath,
		Debug:      o.debug,
		Migrate:    migrate,
	})
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "headlines",
		Short:         "Scrape news headlines and attach notes to them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(opts),
		newIngestCommand(opts),
		newArticlesCommand(opts),
		newMigrateCommand(opts),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
