package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Direction selects which way Migrate moves the schema.
type Direction int

const (
	Up Direction = iota
	Down
)

// Migrate applies the embedded migrations for the handle's driver.
// It is safe to call on an up-to-date schema.
func Migrate(d *DB, dir Direction) error {
	var (
		driver database.Driver
		err    error
	)
	switch d.driver {
	case SQLite:
		driver, err = sqlite.WithInstance(d.x.DB, &sqlite.Config{})
	case Postgres:
		driver, err = postgres.WithInstance(d.x.DB, &postgres.Config{})
	default:
		return fmt.Errorf("store: no migrations for driver %q", d.driver)
	}
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+d.driver)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	// The migrate instance is not closed: closing it would close d's pool.
	m, err := migrate.NewWithInstance("iofs", src, d.driver, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	switch dir {
	case Down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
