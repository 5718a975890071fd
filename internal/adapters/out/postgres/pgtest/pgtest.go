// Package pgtest starts a migrated PostgreSQL container for integration suites.
package pgtest

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/adapters/out/postgres/migrations"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is a running container with the dispatch schema applied.
type Database struct {
	Container *postgres.PostgresContainer
	DB        *gorm.DB
	DSN       string
}

// Start runs postgres:15-alpine and applies every migration.
func Start(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	database := &Database{Container: container}
	if err = database.init(ctx); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return database, nil
}

func (d *Database) init(ctx context.Context) error {
	dsn, err := d.Container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return err
	}
	d.DSN = dsn

	if err = migrations.Run(dsn); err != nil {
		return err
	}

	d.DB, err = gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	return err
}

// Truncate empties every dispatch table.
func (d *Database) Truncate() error {
	return d.DB.Exec("TRUNCATE TABLE assignments, orders, vendors").Error
}

// Terminate stops the container.
func (d *Database) Terminate(ctx context.Context) error {
	return d.Container.Terminate(ctx)
}

// Tracker is a no-op aggregate tracker for repositories used outside a unit of work.
type Tracker struct{}

func (Tracker) TrackAggregate(kernel.UUID, any) {}
