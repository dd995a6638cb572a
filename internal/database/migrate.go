package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/config"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
)

// migrationsTable keeps the version row apart from other services sharing the database.
const migrationsTable = "complaint_priority_schema_migrations"

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations applies all pending migrations for cfg.Driver. It uses its
// own connection, which is closed before returning.
func RunMigrations(cfg config.DatabaseConfig, log logger.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations/"+cfg.Driver)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := migrationDriver(cfg.Driver, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create %s migration driver: %w", cfg.Driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, cfg.Driver, driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("No pending migrations", logger.String("driver", cfg.Driver))
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	version, _, _ := m.Version()
	log.Info("Migrations applied",
		logger.String("driver", cfg.Driver),
		logger.Int("version", int(version)),
	)
	return nil
}

func migrationDriver(driverName string, db *sql.DB) (migratedb.Driver, error) {
	switch driverName {
	case DriverPostgres:
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	case DriverSQLite:
		return sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driverName)
	}
}
