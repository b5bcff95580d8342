package commands

import (
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
)

func newMigrateCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := api.OpenDatabase(cfg, g.logger(cmd))
			if err != nil {
				return err
			}
			defer database.Close()

			return database.RunMigrations()
		},
	}
}
