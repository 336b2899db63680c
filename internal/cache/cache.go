// Package cache persists the most recent aggregation pass so consumers
// can answer queries between passes and survive rig outages. A cache
// holds exactly one snapshot; storing replaces the previous pass whole.
//
// The cache is TTL-agnostic: it reports a snapshot's age and callers
// decide how stale is too stale.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// Snapshot is one cached aggregation pass.
type Snapshot struct {
	Graph      *graph.FederatedGraph
	CapturedAt time.Time
	PassID     string
	Revisions  map[model.RigID]string
}

// Age returns how long ago the snapshot was captured.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.CapturedAt)
}

// Cache stores and loads pass snapshots. Implementations must replace
// the whole snapshot atomically: a reader sees the previous pass or the
// new one, never a mix.
type Cache interface {
	// Store replaces the cached snapshot.
	Store(ctx context.Context, snap *Snapshot) error
	// Load returns the cached snapshot, or (nil, nil) when the cache
	// is empty or its content cannot be read. A cache miss is normal,
	// not an error.
	Load(ctx context.Context) (*Snapshot, error)
	// LoadBead returns one bead by id without decoding the whole
	// graph, or (nil, nil) when absent.
	LoadBead(ctx context.Context, id model.BeadID) (*model.Bead, error)
	// Clear removes the cached snapshot.
	Clear(ctx context.Context) error
	Close() error
}

// OpenFunc opens a backend for a cache URL.
type OpenFunc func(url string) (Cache, error)

var (
	backendsMu sync.Mutex
	backends   = make(map[string]OpenFunc)
)

// Register makes a backend available to Open under the given URL scheme.
// Backends register themselves from init, database/sql driver style.
func Register(scheme string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[scheme]; dup {
		panic(fmt.Sprintf("cache: backend %q registered twice", scheme))
	}
	backends[scheme] = open
}

// Open picks a backend by URL scheme. A bare path opens the default
// sqlite backend.
func Open(url string) (Cache, error) {
	scheme := "sqlite"
	if i := strings.Index(url, "://"); i >= 0 {
		scheme = url[:i]
	}
	backendsMu.Lock()
	open, ok := backends[scheme]
	backendsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("cache: unknown backend scheme %q (is its package imported?)", scheme)
	}
	return open(url)
}
