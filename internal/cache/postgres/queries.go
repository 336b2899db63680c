package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryClear(ctx context.Context, db executor) error {
	for _, table := range []string{"beads", "shadows", "snapshot"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func queryInsertBead(ctx context.Context, db executor, b *model.Bead) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bead %s: %w", b.ID, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO beads (id, origin, status, data) VALUES ($1, $2, $3, $4)`,
		string(b.ID), string(b.Origin), string(b.Status), data,
	)
	if err != nil {
		return fmt.Errorf("insert bead %s: %w", b.ID, err)
	}
	return nil
}

func queryInsertShadow(ctx context.Context, db executor, sh *model.ShadowBead) error {
	data, err := json.Marshal(sh)
	if err != nil {
		return fmt.Errorf("marshal shadow %s: %w", sh.Ref, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO shadows (ref, data) VALUES ($1, $2)`,
		sh.Ref, data,
	)
	if err != nil {
		return fmt.Errorf("insert shadow %s: %w", sh.Ref, err)
	}
	return nil
}

func queryInsertSnapshot(ctx context.Context, db executor, snap *cache.Snapshot, blob []byte) error {
	revs, err := json.Marshal(snap.Revisions)
	if err != nil {
		return fmt.Errorf("marshal revisions: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO snapshot (id, captured_at, pass_id, revisions, graph) VALUES (1, $1, $2, $3, $4)`,
		snap.CapturedAt.UTC(), snap.PassID, revs, blob,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func queryLoadSnapshot(ctx context.Context, db executor) (*cache.Snapshot, error) {
	row := db.QueryRowContext(ctx,
		`SELECT captured_at, pass_id, revisions, graph FROM snapshot WHERE id = 1`)

	var capturedAt time.Time
	var passID string
	var revs, blob []byte
	if err := row.Scan(&capturedAt, &passID, &revs, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	// An unreadable snapshot is a miss, not an error.
	g, err := cache.DecodeGraph(blob)
	if err != nil {
		return nil, nil
	}
	var revisions map[model.RigID]string
	if err := json.Unmarshal(revs, &revisions); err != nil {
		return nil, nil
	}

	return &cache.Snapshot{
		Graph:      g,
		CapturedAt: capturedAt,
		PassID:     passID,
		Revisions:  revisions,
	}, nil
}

func queryLoadBead(ctx context.Context, db executor, id model.BeadID) (*model.Bead, error) {
	row := db.QueryRowContext(ctx, `SELECT data FROM beads WHERE id = $1`, string(id))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load bead %s: %w", id, err)
	}
	var b model.Bead
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, nil
	}
	return &b, nil
}
