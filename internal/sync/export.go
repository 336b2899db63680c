// Package sync exports the federation as JSONL and ships the export to
// configured destinations (git repositories, S3 buckets). The sheriff
// invokes it during the syncing phase of each pass.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string                 `json:"version"`
	Type        string                 `json:"type"`
	Timestamp   time.Time              `json:"timestamp"`
	PassID      string                 `json:"pass_id,omitempty"`
	BeadCount   int                    `json:"bead_count"`
	ShadowCount int                    `json:"shadow_count"`
	Revisions   map[model.RigID]string `json:"revisions,omitempty"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the snapshot as JSONL to w: one header line, then
// a "bead" record per bead ordered by id, then a "shadow" record per
// shadow ordered by ref. The same snapshot always yields byte-identical
// output, so destinations can skip unchanged uploads.
func ExportJSONL(snap *cache.Snapshot, w io.Writer) error {
	beads := snap.Graph.Beads()
	shadows := snap.Graph.Shadows()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   snap.CapturedAt.UTC(),
		PassID:      snap.PassID,
		BeadCount:   len(beads),
		ShadowCount: len(shadows),
		Revisions:   snap.Revisions,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, b := range beads {
		if err := enc.Encode(record{Type: "bead", Data: b}); err != nil {
			return fmt.Errorf("encode bead %s: %w", b.ID, err)
		}
	}

	for _, s := range shadows {
		if err := enc.Encode(record{Type: "shadow", Data: s}); err != nil {
			return fmt.Errorf("encode shadow %s: %w", s.Ref, err)
		}
	}

	return nil
}
