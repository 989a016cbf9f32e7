package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration of the configured dialect.
func Migrate(cfg Config) error {
	if cfg.Dialect == SQLite {
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return err
		}
	}
	// migrate closes the instance it is given, so it gets its own connection
	conn, err := sql.Open(cfg.driverName(), cfg.DSN())
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer conn.Close()

	var driver database.Driver
	switch cfg.Dialect {
	case SQLite:
		driver, err = sqlitemigrate.WithInstance(conn, &sqlitemigrate.Config{})
	case Postgres:
		driver, err = pgxmigrate.WithInstance(conn, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("invalid dialect %q", cfg.Dialect)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", cfg.Dialect, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(cfg.Dialect))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(cfg.Dialect), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
