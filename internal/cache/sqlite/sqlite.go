// Package sqlite implements the cache.Cache interface backed by an
// embedded SQLite database. It is the default backend: a single file,
// no external services.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteCache implements cache.Cache backed by a SQLite database file.
type SQLiteCache struct {
	db *sql.DB
}

// Compile-time check that SQLiteCache implements cache.Cache.
var _ cache.Cache = (*SQLiteCache)(nil)

func init() {
	cache.Register("sqlite", func(url string) (cache.Cache, error) {
		return New(strings.TrimPrefix(url, "sqlite://"))
	})
}

// New opens (creating if needed) the SQLite database at path and runs
// any pending migrations.
func New(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; serializing all access through a single
	// connection avoids SQLITE_BUSY under the daemon's store/read mix.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

// Store replaces the cached snapshot in one transaction, so readers see
// the previous pass or the new one, never a mix.
func (s *SQLiteCache) Store(ctx context.Context, snap *cache.Snapshot) error {
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

// Load returns the cached snapshot, or (nil, nil) when the cache is
// empty or unreadable.
func (s *SQLiteCache) Load(ctx context.Context) (*cache.Snapshot, error) {
	return queryLoadSnapshot(ctx, s.db)
}

// LoadBead returns one cached bead by id, or (nil, nil) when absent.
func (s *SQLiteCache) LoadBead(ctx context.Context, id model.BeadID) (*model.Bead, error) {
	return queryLoadBead(ctx, s.db, id)
}

// Clear removes the cached snapshot.
func (s *SQLiteCache) Clear(ctx context.Context) error {
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
