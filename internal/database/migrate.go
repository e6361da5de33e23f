package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator creates a migrator on db. Closing the migrator also closes db.
func NewMigrator(db *sql.DB, dbName string) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		DatabaseName: dbName,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{m: m}, nil
}

// ErrDirtySchema is returned by Up when a previous migration stopped halfway.
var ErrDirtySchema = errors.New("schema is dirty, fix it by hand and run migrate force")

// SchemaChange is the schema version before and after an Up run.
type SchemaChange struct {
	From uint
	To   uint
}

// Applied reports whether Up moved the schema forward.
func (c SchemaChange) Applied() bool { return c.To != c.From }

func (c SchemaChange) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("from_version", uint64(c.From)),
		slog.Uint64("to_version", uint64(c.To)),
		slog.Bool("applied", c.Applied()),
	)
}

// Up applies every pending migration and reports the versions it moved
// between. An up-to-date schema yields From == To.
func (m *Migrator) Up() (SchemaChange, error) {
	from, dirty, err := m.Version()
	if err != nil {
		return SchemaChange{}, err
	}
	if dirty {
		return SchemaChange{From: from, To: from}, fmt.Errorf("version %d: %w", from, ErrDirtySchema)
	}

	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaChange{From: from, To: from}, fmt.Errorf("run migrations: %w", err)
	}

	to, _, err := m.Version()
	if err != nil {
		return SchemaChange{From: from, To: from}, err
	}
	return SchemaChange{From: from, To: to}, nil
}

// Down reverts the most recent migration.
func (m *Migrator) Down() error {
	if err := m.m.Steps(-1); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Version reports the applied version, 0 when nothing was applied yet.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get version: %w", err)
	}
	return version, dirty, nil
}

// Force marks version as applied without running it, clearing the dirty flag.
// It is meant to recover from a failed migration by hand.
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close database: %w", dbErr)
	}
	return nil
}
