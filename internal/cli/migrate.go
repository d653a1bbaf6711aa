package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/headlines/internal/database"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(database.Up), string(database.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := database.ParseDirection(args[0])
			if err != nil {
				return err
			}

			app, err := opts.bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			if err = app.DB.Migrate(direction); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return nil
		},
	}
}
