package graph

import (
	"sort"
	"strings"

	"github.com/alfredjeanlab/convoy/internal/model"
)

// Ready returns open beads whose every dependency is absent or terminal,
// ordered by priority, then creation time, then id. An absent dependency
// is an unresolved external reference and treated as satisfied. The set
// is recomputed fresh on each call.
func (g *FederatedGraph) Ready() []*model.Bead {
	var out []*model.Bead
	for _, id := range g.ids {
		b := g.beads[id]
		if b.Status != model.StatusOpen {
			continue
		}
		if len(g.openDeps(b)) == 0 {
			out = append(out, b)
		}
	}
	sortBeads(out)
	return out
}

// BlockedBead pairs a blocked bead with the open dependencies holding it.
type BlockedBead struct {
	Bead      *model.Bead    `json:"bead"`
	BlockedBy []model.BeadID `json:"blocked_by"`
}

// Blocked returns open and in-progress beads that have at least one
// present non-terminal dependency, ordered like Ready. For any graph,
// Ready and Blocked are disjoint.
func (g *FederatedGraph) Blocked() []*BlockedBead {
	var out []*BlockedBead
	for _, id := range g.ids {
		b := g.beads[id]
		if b.Status != model.StatusOpen && b.Status != model.StatusInProgress {
			continue
		}
		if open := g.openDeps(b); len(open) > 0 {
			out = append(out, &BlockedBead{Bead: b, BlockedBy: open})
		}
	}
	sort.Slice(out, func(i, j int) bool { return beadLess(out[i].Bead, out[j].Bead) })
	return out
}

// openDeps returns b's present, non-terminal dependencies.
func (g *FederatedGraph) openDeps(b *model.Bead) []model.BeadID {
	var open []model.BeadID
	for _, dep := range g.depsOf(b) {
		target, ok := g.beads[dep]
		if !ok {
			continue
		}
		if !target.Status.Terminal() {
			open = append(open, dep)
		}
	}
	return open
}

// Cycles reports dependency cycles as ordered id lists. Each cycle is
// rotated to start at its smallest id and duplicates found from other
// entry points are dropped, so the same cycle always reports the same
// way regardless of traversal start. Cycles are reported, never broken.
func (g *FederatedGraph) Cycles() [][]model.BeadID {
	visited := make(map[model.BeadID]bool)
	recStack := make(map[model.BeadID]bool)
	var found [][]model.BeadID

	var dfs func(id model.BeadID, path []model.BeadID)
	dfs = func(id model.BeadID, path []model.BeadID) {
		visited[id] = true
		recStack[id] = true
		path = append(path, id)

		for _, dep := range g.depsOf(g.beads[id]) {
			if _, ok := g.beads[dep]; !ok {
				continue
			}
			if !visited[dep] {
				dfs(dep, path)
			} else if recStack[dep] {
				// Back-edge: the cycle is the path suffix from dep.
				start := -1
				for i, n := range path {
					if n == dep {
						start = i
						break
					}
				}
				if start >= 0 {
					cycle := make([]model.BeadID, len(path)-start)
					copy(cycle, path[start:])
					found = append(found, cycle)
				}
			}
		}
		recStack[id] = false
	}

	// Sorted roots keep discovery order deterministic.
	for _, id := range g.ids {
		if !visited[id] {
			dfs(id, nil)
		}
	}

	seen := make(map[string]bool)
	var out [][]model.BeadID
	for _, cycle := range found {
		normalized := normalizeCycle(cycle)
		key := joinIDs(normalized)
		if !seen[key] {
			seen[key] = true
			out = append(out, normalized)
		}
	}
	return out
}

// normalizeCycle rotates a cycle to start at its smallest id so the same
// cycle found from different entry points deduplicates.
func normalizeCycle(cycle []model.BeadID) []model.BeadID {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]model.BeadID, len(cycle))
	for i := range cycle {
		out[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return out
}

func joinIDs(ids []model.BeadID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, "->")
}

// Edge is one dependency edge between two present beads. CrossRepo marks
// edges whose endpoints were contributed by different rigs.
type Edge struct {
	From      model.BeadID `json:"from"`
	To        model.BeadID `json:"to"`
	CrossRepo bool         `json:"cross_repo"`
}

// Edges returns every dependency edge between present beads, ordered by
// (From, To).
func (g *FederatedGraph) Edges() []Edge {
	var out []Edge
	for _, id := range g.ids {
		b := g.beads[id]
		for _, dep := range g.depsOf(b) {
			target, ok := g.beads[dep]
			if !ok {
				continue
			}
			out = append(out, Edge{
				From:      id,
				To:        dep,
				CrossRepo: b.Origin != "" && target.Origin != "" && b.Origin != target.Origin,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// CrossRepoEdges returns only the edges spanning two rigs.
func (g *FederatedGraph) CrossRepoEdges() []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.CrossRepo {
			out = append(out, e)
		}
	}
	return out
}

// ExternalRef is a dependency edge whose target is absent from the
// graph: unresolved, not an error.
type ExternalRef struct {
	From model.BeadID `json:"from"`
	To   model.BeadID `json:"to"`
}

// ExternalRefs returns the edges pointing outside the graph, ordered by
// (From, To).
func (g *FederatedGraph) ExternalRefs() []ExternalRef {
	var out []ExternalRef
	for _, id := range g.ids {
		b := g.beads[id]
		for _, dep := range g.depsOf(b) {
			if _, ok := g.beads[dep]; ok {
				continue
			}
			out = append(out, ExternalRef{From: id, To: dep})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Stats summarizes the graph as a pure fold: counts by status, priority,
// and origin, plus the current ready and blocked totals.
type Stats struct {
	Beads          int                  `json:"beads"`
	Shadows        int                  `json:"shadows"`
	ByStatus       map[model.Status]int `json:"by_status"`
	ByPriority     map[string]int       `json:"by_priority"`
	ByOrigin       map[model.RigID]int  `json:"by_origin"`
	Ready          int                  `json:"ready"`
	Blocked        int                  `json:"blocked"`
	CrossRepoEdges int                  `json:"cross_repo_edges"`
	ExternalRefs   int                  `json:"external_refs"`
	Cycles         int                  `json:"cycles"`
}

// Stats computes the graph summary.
func (g *FederatedGraph) Stats() *Stats {
	st := &Stats{
		Beads:      len(g.beads),
		Shadows:    len(g.shadows),
		ByStatus:   make(map[model.Status]int),
		ByPriority: make(map[string]int),
		ByOrigin:   make(map[model.RigID]int),
	}
	for _, id := range g.ids {
		b := g.beads[id]
		st.ByStatus[b.Status]++
		st.ByPriority[b.Priority.String()]++
		st.ByOrigin[b.Origin]++
	}
	st.Ready = len(g.Ready())
	st.Blocked = len(g.Blocked())
	st.CrossRepoEdges = len(g.CrossRepoEdges())
	st.ExternalRefs = len(g.ExternalRefs())
	st.Cycles = len(g.Cycles())
	return st
}

// Filter narrows List results. Zero-valued fields match everything.
type Filter struct {
	Origin   model.RigID
	Status   model.Status
	Type     model.IssueType
	Assignee string
	Label    string
	Limit    int
}

// List returns beads matching the filter, ordered by id.
func (g *FederatedGraph) List(f Filter) []*model.Bead {
	var out []*model.Bead
	for _, id := range g.ids {
		b := g.beads[id]
		if !f.matches(b) {
			continue
		}
		out = append(out, b)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

func (f Filter) matches(b *model.Bead) bool {
	if f.Origin != "" && b.Origin != f.Origin {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Type != "" && b.IssueType != f.Type {
		return false
	}
	if f.Assignee != "" && b.Assignee != f.Assignee {
		return false
	}
	if f.Label != "" {
		found := false
		for _, l := range b.Labels {
			if l == f.Label {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortBeads(beads []*model.Bead) {
	sort.Slice(beads, func(i, j int) bool { return beadLess(beads[i], beads[j]) })
}

// beadLess orders by priority, then creation time, then id.
func beadLess(a, b *model.Bead) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
