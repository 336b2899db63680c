// Package postgres implements the cache.Cache interface backed by
// PostgreSQL, for deployments where several consumers share one cache.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresCache implements cache.Cache backed by a PostgreSQL database.
type PostgresCache struct {
	db *sql.DB
}

// Compile-time check that PostgresCache implements cache.Cache.
var _ cache.Cache = (*PostgresCache)(nil)

func init() {
	open := func(url string) (cache.Cache, error) { return New(url) }
	cache.Register("postgres", open)
	cache.Register("postgresql", open)
}

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresCache, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresCache{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresCache) Close() error {
	return s.db.Close()
}

// Store replaces the cached snapshot in one transaction.
func (s *PostgresCache) Store(ctx context.Context, snap *cache.Snapshot) error {
	blob, err := cache.EncodeGraph(snap.Graph)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := queryClear(ctx, tx); err != nil {
		return err
	}
	for _, b := range snap.Graph.Beads() {
		if err := queryInsertBead(ctx, tx, b); err != nil {
			return err
		}
	}
	for _, sh := range snap.Graph.Shadows() {
		if err := queryInsertShadow(ctx, tx, sh); err != nil {
			return err
		}
	}
	if err := queryInsertSnapshot(ctx, tx, snap, blob); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Load returns the cached snapshot, or (nil, nil) on a miss.
func (s *PostgresCache) Load(ctx context.Context) (*cache.Snapshot, error) {
	return queryLoadSnapshot(ctx, s.db)
}

// LoadBead returns one cached bead by id, or (nil, nil) when absent.
func (s *PostgresCache) LoadBead(ctx context.Context, id model.BeadID) (*model.Bead, error) {
	return queryLoadBead(ctx, s.db, id)
}

// Clear removes the cached snapshot.
func (s *PostgresCache) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := queryClear(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
