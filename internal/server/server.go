// Package server exposes the federation over a read-only HTTP API plus
// a server-sent-events stream. It serves whatever the sheriff daemon
// holds in memory, falling back to the snapshot cache when no pass has
// completed yet, and never mutates either.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/alfredjeanlab/convoy/internal/aggregate"
	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/events"
	"github.com/alfredjeanlab/convoy/internal/sheriff"
)

// SnapshotSource yields the latest completed aggregation pass. The
// sheriff daemon is the usual implementation.
type SnapshotSource interface {
	// Snapshot returns the most recent pass result, or nil before the
	// first pass completes.
	Snapshot() *cache.Snapshot
	// Report returns the report for that pass, or nil.
	Report() *aggregate.Report
	// State names the daemon's current phase.
	State() sheriff.State
}

var _ SnapshotSource = (*sheriff.Daemon)(nil)

// Options configures a Server. Source and Cache are each optional but
// a server with neither has nothing to serve.
type Options struct {
	// Source is polled for the in-memory snapshot, usually the daemon.
	Source SnapshotSource
	// Cache answers reads when the source has no snapshot yet, such as
	// right after a restart or when no daemon runs in this process.
	Cache  cache.Cache
	Logger *slog.Logger
}

// Server serves the federated graph over HTTP and SSE.
type Server struct {
	source SnapshotSource
	cache  cache.Cache
	sseHub *sseHub
	logger *slog.Logger
}

// New returns a Server over the given source and cache.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		source: opts.Source,
		cache:  opts.Cache,
		sseHub: newSSEHub(),
		logger: logger,
	}
}

// SetSource attaches the snapshot source after construction. The
// daemon consumes this server's Publisher, so it cannot exist before
// the server does; call this before serving requests.
func (s *Server) SetSource(src SnapshotSource) {
	s.source = src
}

// snapshot resolves the freshest available snapshot: the source's
// in-memory result when present, otherwise the cache. A (nil, nil)
// return means no snapshot exists anywhere yet.
func (s *Server) snapshot(ctx context.Context) (*cache.Snapshot, error) {
	if s.source != nil {
		if snap := s.source.Snapshot(); snap != nil {
			return snap, nil
		}
	}
	if s.cache != nil {
		return s.cache.Load(ctx)
	}
	return nil, nil
}

// Publisher wraps next so that every event the daemon publishes is
// also broadcast to connected SSE clients. Pass nil to stream events
// without an upstream publisher.
func (s *Server) Publisher(next events.Publisher) events.Publisher {
	if next == nil {
		next = &events.NoopPublisher{}
	}
	return &ssePublisher{hub: s.sseHub, logger: s.logger, next: next}
}

// ssePublisher mirrors published events into the SSE hub before
// delegating to the wrapped publisher.
type ssePublisher struct {
	hub    *sseHub
	logger *slog.Logger
	next   events.Publisher
}

func (p *ssePublisher) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
	} else {
		p.hub.broadcast(topic, payload)
	}
	return p.next.Publish(ctx, topic, event)
}

func (p *ssePublisher) Close() error {
	return p.next.Close()
}
