package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// newMockDB creates a sqlmock database with automatic cleanup and
// expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func testSnapshot(t *testing.T) *cache.Snapshot {
	t.Helper()
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	g := graph.Build([]*model.Bead{
		{
			ID: "a-1", Title: "First", Status: model.StatusOpen, Priority: model.P1,
			IssueType: model.TypeTask, CreatedAt: created, UpdatedAt: created, Origin: "alpha",
		},
	}, []*model.ShadowBead{
		model.NewShadowBead("bead://beta/b-7"),
	})
	return &cache.Snapshot{
		Graph:      g,
		CapturedAt: created,
		PassID:     "pass-x",
		Revisions:  map[model.RigID]string{"alpha": "rev-a"},
	}
}

func expectClear(mock sqlmock.Sqlmock) {
	mock.ExpectExec("DELETE FROM beads").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM shadows").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM snapshot").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestStore_ReplacesInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	c := &PostgresCache{db: db}
	snap := testSnapshot(t)

	mock.ExpectBegin()
	expectClear(mock)
	mock.ExpectExec("INSERT INTO beads").
		WithArgs("a-1", "alpha", "open", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO shadows").
		WithArgs("bead://beta/b-7", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO snapshot").
		WithArgs(snap.CapturedAt.UTC(), "pass-x", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := c.Store(context.Background(), snap); err != nil {
		t.Fatalf("Store: %v", err)
	}
}

func TestStore_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	c := &PostgresCache{db: db}
	snap := testSnapshot(t)

	mock.ExpectBegin()
	expectClear(mock)
	mock.ExpectExec("INSERT INTO beads").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if err := c.Store(context.Background(), snap); err == nil {
		t.Fatal("Store with failing insert returned nil error")
	}
}

func TestLoad_Hit(t *testing.T) {
	db, mock := newMockDB(t)
	c := &PostgresCache{db: db}
	snap := testSnapshot(t)

	blob, err := cache.EncodeGraph(snap.Graph)
	if err != nil {
		t.Fatalf("EncodeGraph: %v", err)
	}
	rows := sqlmock.NewRows([]string{"captured_at", "pass_id", "revisions", "graph"}).
		AddRow(snap.CapturedAt, "pass-x", []byte(`{"alpha":"rev-a"}`), blob)
	mock.ExpectQuery("SELECT captured_at, pass_id, revisions, graph FROM snapshot").
		WillReturnRows(rows)

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load = miss, want hit")
	}
	if got.PassID != "pass-x" || got.Revisions["alpha"] != "rev-a" {
		t.Errorf("Load = %+v", got)
	}
	if got.Graph.Len() != 1 {
		t.Errorf("loaded graph has %d beads, want 1", got.Graph.Len())
	}
}

func TestLoad_MissOnNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	c := &PostgresCache{db: db}

	mock.ExpectQuery("SELECT captured_at, pass_id, revisions, graph FROM snapshot").
		WillReturnError(sql.ErrNoRows)

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("Load = %+v, want nil snapshot on empty cache", got)
	}
}

func TestLoad_MissOnCorruptBlob(t *testing.T) {
	db, mock := newMockDB(t)
	c := &PostgresCache{db: db}

	rows := sqlmock.NewRows([]string{"captured_at", "pass_id", "revisions", "graph"}).
		AddRow(time.Now(), "pass-x", []byte(`{}`), []byte("not zstd"))
	mock.ExpectQuery("SELECT captured_at, pass_id, revisions, graph FROM snapshot").
		WillReturnRows(rows)

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("Load = %+v, want miss on unreadable snapshot", got)
	}
}

func TestLoadBead(t *testing.T) {
	db, mock := newMockDB(t)
	c := &PostgresCache{db: db}

	rows := sqlmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"a-1","title":"First","status":"open","priority":1,"issue_type":"task","origin":"alpha","created_at":"2025-06-01T00:00:00Z","updated_at":"2025-06-01T00:00:00Z"}`))
	mock.ExpectQuery("SELECT data FROM beads WHERE id").
		WithArgs("a-1").
		WillReturnRows(rows)

	b, err := c.LoadBead(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("LoadBead: %v", err)
	}
	if b == nil || b.Title != "First" || b.Origin != "alpha" {
		t.Errorf("LoadBead = %+v", b)
	}

	mock.ExpectQuery("SELECT data FROM beads WHERE id").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	missing, err := c.LoadBead(context.Background(), "nope")
	if err != nil {
		t.Fatalf("LoadBead(miss): %v", err)
	}
	if missing != nil {
		t.Errorf("LoadBead(nope) = %+v, want nil, nil", missing)
	}
}

func TestClear(t *testing.T) {
	db, mock := newMockDB(t)
	c := &PostgresCache{db: db}

	mock.ExpectBegin()
	expectClear(mock)
	mock.ExpectCommit()

	if err := c.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
}
