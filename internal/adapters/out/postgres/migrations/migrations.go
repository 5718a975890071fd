// Package migrations holds the dispatch schema as embedded SQL migrations.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

// MigrationsTable records applied versions.
const MigrationsTable = "dispatch_schema_migrations"

//go:embed *.sql
var files embed.FS

// Run applies every pending up migration to the database at dsn.
func Run(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	source, err := iofs.New(files, ".")
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("could not read migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}
