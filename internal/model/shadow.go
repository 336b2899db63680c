package model

import "time"

// ShadowBead mirrors a bead owned elsewhere: a member rig's bead seen
// from an aggregating context, or an item tracked outside the federation
// entirely. A shadow never owns field truth; every aggregation pass
// refreshes it from the merged graph, and when its target cannot be
// resolved it goes stale instead of disappearing.
type ShadowBead struct {
	ID        BeadID    `json:"id"`
	Ref       string    `json:"ref"`
	Title     string    `json:"title,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Priority  Priority  `json:"priority"`
	Summary   string    `json:"summary,omitempty"`
	DependsOn []string  `json:"depends_on,omitempty"`
	Origin    RigID     `json:"origin,omitempty"`
	SyncedAt  time.Time `json:"synced_at"`
	Stale     bool      `json:"stale,omitempty"`
}

// ShadowID derives the graph-local id for a shadow of ref. The shadow/
// prefix keeps shadows out of the bead id namespace, so an id-keyed
// lookup can never confuse a mirror with the bead it mirrors.
func ShadowID(ref string) BeadID {
	if r, err := ParseBeadRef(ref); err == nil {
		return BeadID("shadow/" + string(r.Rig) + "/" + string(r.ID))
	}
	return BeadID("shadow/" + ref)
}

// NewShadowBead starts a shadow for the given reference URI. The ref is
// the only required field; optional fields are layered on with the With
// setters, so adapters for new external sources build the same shape
// without a type hierarchy.
func NewShadowBead(ref string) *ShadowBead {
	s := &ShadowBead{ID: ShadowID(ref), Ref: ref, Status: StatusOpen}
	if r, err := ParseBeadRef(ref); err == nil {
		s.Origin = r.Rig
	}
	return s
}

// WithTitle sets the mirrored title.
func (s *ShadowBead) WithTitle(title string) *ShadowBead {
	s.Title = title
	return s
}

// WithStatus sets the mirrored status.
func (s *ShadowBead) WithStatus(status Status) *ShadowBead {
	s.Status = status
	return s
}

// WithPriority sets the mirrored priority.
func (s *ShadowBead) WithPriority(p Priority) *ShadowBead {
	s.Priority = p
	return s
}

// WithSummary sets the free-form summary.
func (s *ShadowBead) WithSummary(summary string) *ShadowBead {
	s.Summary = summary
	return s
}

// WithDependsOn sets the cross-repo dependency URIs.
func (s *ShadowBead) WithDependsOn(refs ...string) *ShadowBead {
	s.DependsOn = refs
	return s
}

// WithOrigin sets the owning rig, when resolvable.
func (s *ShadowBead) WithOrigin(rig RigID) *ShadowBead {
	s.Origin = rig
	return s
}

// WithSyncedAt records when the shadow was last refreshed.
func (s *ShadowBead) WithSyncedAt(t time.Time) *ShadowBead {
	s.SyncedAt = t
	return s
}

// WithStale flags whether the target was unresolvable on the last pass.
func (s *ShadowBead) WithStale(stale bool) *ShadowBead {
	s.Stale = stale
	return s
}
