package graph

import (
	"encoding/json"
	"sort"

	"github.com/alfredjeanlab/convoy/internal/model"
)

// FederatedGraph is the merged dependency graph spanning all configured
// rigs: an id-keyed arena of origin-tagged beads, the shadows synthesized
// for cross-repo references, and derived indices. A graph is assembled
// once by Build and read-only afterwards, so concurrent readers need no
// locking. A dependency id absent from the arena is an unresolved
// external reference, never an error.
type FederatedGraph struct {
	beads   map[model.BeadID]*model.Bead
	shadows map[string]*model.ShadowBead

	ids  []model.BeadID // sorted
	refs []string       // sorted

	// dependents[x] = beads that cannot proceed until x is terminal.
	// blockedBy[x] = dependencies of x implied by other beads' blocks
	// lists, on top of x's own depends_on.
	dependents map[model.BeadID][]model.BeadID
	blockedBy  map[model.BeadID][]model.BeadID

	byOrigin map[model.RigID][]model.BeadID
	origins  []model.RigID // sorted
}

// New returns an empty graph.
func New() *FederatedGraph {
	return Build(nil, nil)
}

// Build assembles a graph from merged beads and shadows and computes the
// derived indices. Later duplicates of a bead id replace earlier ones;
// the inputs are not copied.
func Build(beads []*model.Bead, shadows []*model.ShadowBead) *FederatedGraph {
	g := &FederatedGraph{
		beads:      make(map[model.BeadID]*model.Bead, len(beads)),
		shadows:    make(map[string]*model.ShadowBead, len(shadows)),
		dependents: make(map[model.BeadID][]model.BeadID),
		blockedBy:  make(map[model.BeadID][]model.BeadID),
		byOrigin:   make(map[model.RigID][]model.BeadID),
	}
	for _, b := range beads {
		if b == nil || b.ID == "" {
			continue
		}
		g.beads[b.ID] = b
	}
	for _, s := range shadows {
		if s == nil || s.Ref == "" {
			continue
		}
		g.shadows[s.Ref] = s
	}

	g.ids = make([]model.BeadID, 0, len(g.beads))
	for id := range g.beads {
		g.ids = append(g.ids, id)
	}
	sort.Slice(g.ids, func(i, j int) bool { return g.ids[i] < g.ids[j] })

	g.refs = make([]string, 0, len(g.shadows))
	for ref := range g.shadows {
		g.refs = append(g.refs, ref)
	}
	sort.Strings(g.refs)

	// Index both edge directions: a depends_on entry and the owning
	// side's blocks entry describe the same relationship.
	for _, id := range g.ids {
		b := g.beads[id]
		g.byOrigin[b.Origin] = append(g.byOrigin[b.Origin], id)
		for _, dep := range b.DependsOn {
			g.dependents[dep] = appendUnique(g.dependents[dep], id)
		}
		for _, blocked := range b.Blocks {
			g.blockedBy[blocked] = appendUnique(g.blockedBy[blocked], id)
			g.dependents[id] = appendUnique(g.dependents[id], blocked)
		}
	}
	for rig := range g.byOrigin {
		g.origins = append(g.origins, rig)
	}
	sort.Slice(g.origins, func(i, j int) bool { return g.origins[i] < g.origins[j] })

	return g
}

func appendUnique(ids []model.BeadID, id model.BeadID) []model.BeadID {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}

// depsOf returns the effective dependency ids of b: its own depends_on
// list plus edges implied by other beads' blocks declarations.
func (g *FederatedGraph) depsOf(b *model.Bead) []model.BeadID {
	implied := g.blockedBy[b.ID]
	if len(implied) == 0 {
		return b.DependsOn
	}
	out := make([]model.BeadID, 0, len(b.DependsOn)+len(implied))
	out = append(out, b.DependsOn...)
	for _, id := range implied {
		out = appendUnique(out, id)
	}
	return out
}

// Len returns the number of beads in the graph.
func (g *FederatedGraph) Len() int {
	return len(g.beads)
}

// Bead looks up a bead by id.
func (g *FederatedGraph) Bead(id model.BeadID) (*model.Bead, bool) {
	b, ok := g.beads[id]
	return b, ok
}

// Shadow looks up a shadow by its reference URI.
func (g *FederatedGraph) Shadow(ref string) (*model.ShadowBead, bool) {
	s, ok := g.shadows[ref]
	return s, ok
}

// Beads returns all beads ordered by id.
func (g *FederatedGraph) Beads() []*model.Bead {
	out := make([]*model.Bead, len(g.ids))
	for i, id := range g.ids {
		out[i] = g.beads[id]
	}
	return out
}

// Shadows returns all shadows ordered by reference URI.
func (g *FederatedGraph) Shadows() []*model.ShadowBead {
	out := make([]*model.ShadowBead, len(g.refs))
	for i, ref := range g.refs {
		out[i] = g.shadows[ref]
	}
	return out
}

// Origins returns the rigs that contributed beads, sorted by name.
func (g *FederatedGraph) Origins() []model.RigID {
	out := make([]model.RigID, len(g.origins))
	copy(out, g.origins)
	return out
}

// ByOrigin returns the beads contributed by one rig, ordered by id.
func (g *FederatedGraph) ByOrigin(rig model.RigID) []*model.Bead {
	ids := g.byOrigin[rig]
	out := make([]*model.Bead, len(ids))
	for i, id := range ids {
		out[i] = g.beads[id]
	}
	return out
}

// Dependents returns the ids of beads that depend on id, combining
// forward depends_on edges pointing at it with its own declared blocks.
func (g *FederatedGraph) Dependents(id model.BeadID) []model.BeadID {
	ids := g.dependents[id]
	out := make([]model.BeadID, len(ids))
	copy(out, ids)
	return out
}

// graphJSON is the serialized form used by the cache blob and the HTTP
// graph endpoint.
type graphJSON struct {
	Beads   []*model.Bead       `json:"beads"`
	Shadows []*model.ShadowBead `json:"shadows,omitempty"`
}

// MarshalJSON renders the graph deterministically: beads sorted by id,
// shadows sorted by ref.
func (g *FederatedGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Beads: g.Beads(), Shadows: g.Shadows()})
}

// UnmarshalJSON rebuilds the graph, indices included.
func (g *FederatedGraph) UnmarshalJSON(data []byte) error {
	var wire graphJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*g = *Build(wire.Beads, wire.Shadows)
	return nil
}
