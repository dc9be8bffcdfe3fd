package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

////////////////////////////////////////////////////////////////////////////////

// Migrate runs every pending migration for the dialect behind db.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	logger := log.WithFields(log.Fields{
		"caller": "Migrate",
		"driver": db.DriverName(),
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// m.Close would close db as well, so m is left for the GC.

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		logger.Warn("Database is in dirty state, attempting to continue...")
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.WithField("version", currentVersion).Debug("Database is already up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}
	logger.WithFields(log.Fields{
		"from_version": currentVersion,
		"to_version":   newVersion,
	}).Info("Migration completed")
	return nil
}

// MigrateDown reverts every applied migration.
func MigrateDown(db *sqlx.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the applied schema version. A fresh database
// reports version 0.
func MigrationVersion(db *sqlx.DB) (uint, bool, error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

////////////////////////////////////////////////////////////////////////////////

func newMigrate(db *sqlx.DB) (*migrate.Migrate, error) {
	var (
		dir    string
		driver migratedb.Driver
		err    error
	)

	switch db.DriverName() {
	case "postgres":
		dir = "migrations/postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case "sqlite3":
		dir = "migrations/sqlite"
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.DriverName(), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
