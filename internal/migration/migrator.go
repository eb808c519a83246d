// Package migration applies the embedded schema migrations with golang-migrate.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/bardoun7894/basplast/internal/infra"
)

//go:embed migrations/postgres/*.sql
var postgresFS embed.FS

//go:embed migrations/sqlite/*.sql
var sqliteFS embed.FS

// Backend is the database engine a migration set targets.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

const migrationsTable = "schema_migrations"

// Migrator wraps a golang-migrate instance over one database.
type Migrator struct {
	backend Backend
	m       *migrate.Migrate
}

// Open connects to the database named by dsn (a Postgres URL or a SQLite file
// path) and prepares the embedded migrations for backend. The connection is
// owned by the Migrator and released by Close.
func Open(ctx context.Context, backend Backend, dsn string) (*Migrator, error) {
	db, err := openDatabase(ctx, backend, dsn)
	if err != nil {
		return nil, err
	}
	mig, err := newMigrator(backend, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return mig, nil
}

func openDatabase(ctx context.Context, backend Backend, dsn string) (*sql.DB, error) {
	switch backend {
	case BackendPostgres:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("migration: open postgres: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration: ping postgres: %w", err)
		}
		return db, nil
	case BackendSQLite:
		db, err := infra.OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("migration: %w", err)
		}
		// the migrate driver opens transactions alongside plain statements
		db.SetMaxOpenConns(0)
		return db, nil
	default:
		return nil, fmt.Errorf("migration: unsupported backend %q", backend)
	}
}

func newMigrator(backend Backend, db *sql.DB) (*Migrator, error) {
	driver, err := databaseDriver(backend, db)
	if err != nil {
		return nil, fmt.Errorf("migration: database driver: %w", err)
	}
	src, err := sourceDriver(backend)
	if err != nil {
		return nil, fmt.Errorf("migration: source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, string(backend), driver)
	if err != nil {
		return nil, fmt.Errorf("migration: init: %w", err)
	}
	return &Migrator{backend: backend, m: m}, nil
}

func databaseDriver(backend Backend, db *sql.DB) (database.Driver, error) {
	switch backend {
	case BackendPostgres:
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	case BackendSQLite:
		return sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}

func sourceDriver(backend Backend) (source.Driver, error) {
	switch backend {
	case BackendPostgres:
		return iofs.New(postgresFS, "migrations/postgres")
	case BackendSQLite:
		return iofs.New(sqliteFS, "migrations/sqlite")
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down rolls back every migration.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Steps applies n migrations, or rolls back -n when n is negative.
func (m *Migrator) Steps(n int) error {
	if err := m.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return nil
}

// Version reports the applied version. A fresh database is version 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Up opens, migrates and closes in one call. Used at API start.
func Up(ctx context.Context, backend Backend, dsn string) error {
	mig, err := Open(ctx, backend, dsn)
	if err != nil {
		return err
	}
	upErr := mig.Up()
	return errors.Join(upErr, mig.Close())
}
