package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EO-DataHub/eodhp-scim-services/db"
	"github.com/EO-DataHub/eodhp-scim-services/internal/appconfig"
	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	appCfg      *appconfig.Config
	dbConn      *sql.DB
	usersStore  *db.Collection
	groupsStore *db.Collection
)

// commonSetUp sets up logging and loads the config. Any failure is fatal.
func commonSetUp() {
	setLogging(logLevel)

	if err := appconfig.LoadDotEnv(envFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load env file")
	}

	var err error
	appCfg, err = appconfig.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if appCfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// openStores loads the User and Group collections from the configured backend.
func openStores(ctx context.Context) error {
	var usersPersister, groupsPersister db.Persister

	switch appCfg.Storage.Driver {
	case appconfig.DriverPostgres:
		conn, err := db.OpenPostgres(ctx, appCfg.Database.Source, &log.Logger)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		dbConn = conn
		usersPersister = db.NewPostgresPersister(conn, models.ResourceTypeUser)
		groupsPersister = db.NewPostgresPersister(conn, models.ResourceTypeGroup)

	case appconfig.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, appCfg.Storage.SQLitePath, &log.Logger)
		if err != nil {
			return err
		}
		dbConn = conn
		usersPersister = db.NewSQLitePersister(conn, models.ResourceTypeUser)
		groupsPersister = db.NewSQLitePersister(conn, models.ResourceTypeGroup)

	default:
		users, err := db.NewFilePersister(appCfg.Storage.UsersFile)
		if err != nil {
			return err
		}
		groups, err := db.NewFilePersister(appCfg.Storage.GroupsFile)
		if err != nil {
			return err
		}
		usersPersister, groupsPersister = users, groups
	}

	var err error
	usersStore, err = db.NewCollection(ctx, models.ResourceTypeUser, usersPersister, &log.Logger)
	if err != nil {
		return err
	}
	groupsStore, err = db.NewCollection(ctx, models.ResourceTypeGroup, groupsPersister, &log.Logger)
	if err != nil {
		return err
	}

	log.Info().Str("driver", appCfg.Storage.Driver).
		Int("users", usersStore.Len()).Int("groups", groupsStore.Len()).
		Msg("Collections loaded")
	return nil
}

func closeStores() {
	if dbConn != nil {
		dbConn.Close()
	}
}
