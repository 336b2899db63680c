package server

import (
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// resolveSnapshot loads the current snapshot and writes the error
// response when none is available. The bool reports whether the
// caller may proceed.
func (s *Server) resolveSnapshot(w http.ResponseWriter, r *http.Request) (*cache.Snapshot, bool) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.logger.Error("failed to load snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return nil, false
	}
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no federation snapshot available")
		return nil, false
	}
	return snap, true
}

// limitParam parses the ?limit= query parameter, falling back to def.
func limitParam(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// handleGetGraph handles GET /v1/graph.
// Returns the merged graph: beads as nodes, dependencies as edges,
// plus the pass metadata the snapshot was captured under.
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.resolveSnapshot(w, r)
	if !ok {
		return
	}
	g := snap.Graph

	limit := limitParam(r, 500)
	beads := g.Beads()
	total := len(beads)
	if total > limit {
		beads = beads[:limit]
	}

	edges := g.Edges()
	if edges == nil {
		edges = []graph.Edge{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"beads":       beads,
		"shadows":     g.Shadows(),
		"edges":       edges,
		"total":       total,
		"captured_at": snap.CapturedAt,
		"pass_id":     snap.PassID,
	})
}

// handleGetReady handles GET /v1/ready.
// Returns open beads whose every dependency is absent or terminal.
func (s *Server) handleGetReady(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.resolveSnapshot(w, r)
	if !ok {
		return
	}

	ready := snap.Graph.Ready()
	total := len(ready)
	if limit := limitParam(r, 200); total > limit {
		ready = ready[:limit]
	}
	if ready == nil {
		ready = []*model.Bead{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"beads": ready,
		"total": total,
	})
}

// handleGetBlocked handles GET /v1/blocked.
// Returns beads held by at least one open dependency, each paired with
// the ids holding it.
func (s *Server) handleGetBlocked(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.resolveSnapshot(w, r)
	if !ok {
		return
	}

	blocked := snap.Graph.Blocked()
	total := len(blocked)
	if limit := limitParam(r, 200); total > limit {
		blocked = blocked[:limit]
	}
	if blocked == nil {
		blocked = []*graph.BlockedBead{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"beads": blocked,
		"total": total,
	})
}

// handleGetCycles handles GET /v1/cycles.
func (s *Server) handleGetCycles(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.resolveSnapshot(w, r)
	if !ok {
		return
	}

	cycles := snap.Graph.Cycles()
	if cycles == nil {
		cycles = [][]model.BeadID{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cycles": cycles,
		"total":  len(cycles),
	})
}

// handleGetEdges handles GET /v1/edges.
// ?cross_repo=true narrows the result to edges spanning two rigs.
func (s *Server) handleGetEdges(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.resolveSnapshot(w, r)
	if !ok {
		return
	}

	var edges []graph.Edge
	if r.URL.Query().Get("cross_repo") == "true" {
		edges = snap.Graph.CrossRepoEdges()
	} else {
		edges = snap.Graph.Edges()
	}
	if edges == nil {
		edges = []graph.Edge{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"edges": edges,
		"total": len(edges),
	})
}

// handleGetStats handles GET /v1/stats.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.resolveSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Graph.Stats())
}

// handleGetReport handles GET /v1/report.
// The pass report lives only in the daemon; a cache-only server has
// none to serve.
func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusServiceUnavailable, "no pass report available")
		return
	}
	report := s.source.Report()
	if report == nil {
		writeError(w, http.StatusServiceUnavailable, "no pass completed yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
