// Package db manages database connections and schema migrations for the catalog.
// It wraps sqlx for connection pooling and golang-migrate for schema versioning.
// Migrations are embedded in the binary so the server can apply schema changes
// on startup without external tooling.
//
// A Handle carries two pools: the primary and an optional read replica. The
// catalog is read-mostly, so list and detail queries go through Reader(), which
// prefers the replica and falls back to the primary when none is configured.
// Writes (update-request intake) always use the primary.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Handle bundles the primary connection pool with an optional read replica.
type Handle struct {
	primary *sqlx.DB
	replica *sqlx.DB
}

// Connect establishes the primary connection and, when replicaDSN is non-empty,
// a second pool against the read replica. Both pools share the same sizing.
func Connect(dsn, replicaDSN string, maxConnections, minIdleConnections int) (*Handle, error) {
	primary, err := open(dsn, maxConnections, minIdleConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary: %w", err)
	}

	h := &Handle{primary: primary}

	if replicaDSN != "" {
		replica, err := open(replicaDSN, maxConnections, minIdleConnections)
		if err != nil {
			primary.Close()
			return nil, fmt.Errorf("failed to connect to replica: %w", err)
		}
		h.replica = replica
	}

	return h, nil
}

func open(dsn string, maxConnections, minIdleConnections int) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(minIdleConnections)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewHandle wraps existing pools into a Handle. Used by tests with sqlmock.
func NewHandle(primary, replica *sqlx.DB) *Handle {
	return &Handle{primary: primary, replica: replica}
}

// Primary returns the primary pool. All writes go here.
func (h *Handle) Primary() *sqlx.DB {
	return h.primary
}

// Reader returns the pool catalog reads should use: the replica when one is
// configured, otherwise the primary.
func (h *Handle) Reader() *sqlx.DB {
	if h.replica != nil {
		return h.replica
	}
	return h.primary
}

// Ping verifies both pools are reachable.
func (h *Handle) Ping() error {
	if err := h.primary.Ping(); err != nil {
		return fmt.Errorf("primary unreachable: %w", err)
	}
	if h.replica != nil {
		if err := h.replica.Ping(); err != nil {
			return fmt.Errorf("replica unreachable: %w", err)
		}
	}
	return nil
}

// Close closes both pools.
func (h *Handle) Close() error {
	var firstErr error
	if err := h.primary.Close(); err != nil {
		firstErr = err
	}
	if h.replica != nil {
		if err := h.replica.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RunMigrations runs database migrations against the primary.
func RunMigrations(db *sql.DB, direction string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	switch direction {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("failed to rollback migrations: %w", err)
		}
	default:
		return fmt.Errorf("invalid migration direction: %s (must be 'up' or 'down')", direction)
	}

	return nil
}

// GetMigrationVersion returns the current migration version.
func GetMigrationVersion(db *sql.DB) (version uint, dirty bool, err error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migration instance: %w", err)
	}

	version, dirty, err = m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}
