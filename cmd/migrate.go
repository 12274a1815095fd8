package cmd

import (
	"context"

	"github.com/EO-DataHub/eodhp-scim-services/db"
	"github.com/EO-DataHub/eodhp-scim-services/internal/appconfig"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "init-db-migrate",
	Short: "Initialize tables and run database migrations",
	Long:  `This job ensures the resource table exists and then runs goose migrations.`,
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config and set up logging
		commonSetUp()

		ctx := context.Background()

		switch appCfg.Storage.Driver {
		case appconfig.DriverSQLite:
			// Opening the database applies the migrations
			conn, err := db.OpenSQLite(ctx, appCfg.Storage.SQLitePath, &log.Logger)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to run migrations")
			}
			conn.Close()

		default:
			conn, err := db.OpenPostgres(ctx, appCfg.Database.Source, &log.Logger)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to connect to database")
			}
			defer conn.Close()

			// Run the migrations
			log.Info().Msgf("Running migrations...")
			if err := db.Migrate(conn, db.DialectPostgres); err != nil {
				log.Fatal().Err(err).Msg("Failed to run migrations")
			}
		}

		log.Info().Msg("Migrations complete")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
