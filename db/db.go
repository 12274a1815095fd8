package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/EO-DataHub/eodhp-scim-services/models"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Goose dialects, also used to pick the placeholder style of SQLPersister.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

var migrationDirs = map[string]string{
	DialectPostgres: "migrations/postgres",
	DialectSQLite:   "migrations/sqlite",
}

// Persister loads and saves a whole resource collection.
type Persister interface {
	Load(ctx context.Context) (map[string]models.Document, error)
	Save(ctx context.Context, docs map[string]models.Document) error
}

// OpenPostgres opens a connection pool and checks it is reachable.
func OpenPostgres(ctx context.Context, source string, log *zerolog.Logger) (*sql.DB, error) {
	if source == "" {
		return nil, fmt.Errorf("database source is not set")
	}

	db, err := sql.Open("postgres", source)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database connection")
		return nil, err
	}

	// Check we are actually connected
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Database connection failed during ping")
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenSQLite opens (creating if needed) the database file at path and applies the
// migrations.
func OpenSQLite(ctx context.Context, path string, log *zerolog.Logger) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		log.Error().Err(err).Msg("Failed to open sqlite database")
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := Migrate(db, DialectSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded goose migrations for dialect.
func Migrate(db *sql.DB, dialect string) error {
	dir, ok := migrationDirs[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
