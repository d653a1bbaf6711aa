package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/infrastructure/profiling"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when enabled, scheduled ingestion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, err := opts.bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := app.Scheduler()
			if err != nil {
				return err
			}

			stored, err := app.Articles.Count(ctx)
			if err != nil {
				app.Logger.Warn("Could not count stored articles", infralogger.Error(err))
			}

			server := app.HTTPServer()
			app.Logger.Info("Starting HTTP server",
				infralogger.String("addr", server.Addr()),
				infralogger.String("source_url", app.Config.Fetch.SourceURL),
				infralogger.Bool("scheduler", sched != nil),
				infralogger.Int("stored_articles", stored),
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Run(gctx)
			})
			g.Go(func() error {
				return profiling.Run(gctx, app.Config.Profiling, app.Logger)
			})
			if sched != nil {
				g.Go(func() error {
					return sched.Run(gctx)
				})
			}

			if err = g.Wait(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			app.Logger.Info("Server exited")
			return nil
		},
	}
}
