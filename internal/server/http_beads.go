package server

import (
	"net/http"

	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// handleListBeads handles GET /v1/beads.
// Supported query parameters: origin, status, type, assignee, label,
// limit. Zero-valued filters match everything.
func (s *Server) handleListBeads(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.resolveSnapshot(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	beads := snap.Graph.List(graph.Filter{
		Origin:   model.RigID(q.Get("origin")),
		Status:   model.Status(q.Get("status")),
		Type:     model.IssueType(q.Get("type")),
		Assignee: q.Get("assignee"),
		Label:    q.Get("label"),
		Limit:    limitParam(r, 500),
	})
	if beads == nil {
		beads = []*model.Bead{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"beads": beads,
		"total": len(beads),
	})
}

// handleGetBead handles GET /v1/beads/{id}.
// An in-memory snapshot answers directly; without one the cache's
// single-row read avoids decoding the whole graph.
func (s *Server) handleGetBead(w http.ResponseWriter, r *http.Request) {
	id := model.BeadID(r.PathValue("id"))

	if s.source != nil {
		if snap := s.source.Snapshot(); snap != nil {
			if b, ok := snap.Graph.Bead(id); ok {
				writeJSON(w, http.StatusOK, b)
				return
			}
			writeError(w, http.StatusNotFound, "bead not found")
			return
		}
	}

	if s.cache != nil {
		b, err := s.cache.LoadBead(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to load bead", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load bead")
			return
		}
		if b != nil {
			writeJSON(w, http.StatusOK, b)
			return
		}
	}

	writeError(w, http.StatusNotFound, "bead not found")
}
