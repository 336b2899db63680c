package sheriff

import (
	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// DeltaKind classifies one bead-level change between two passes.
type DeltaKind string

const (
	DeltaCreated       DeltaKind = "created"
	DeltaStatusChanged DeltaKind = "status_changed"
	DeltaClosed        DeltaKind = "closed"
)

// Delta is one observed change. A transition into a terminal status
// yields both a status_changed and a closed delta.
type Delta struct {
	Kind      DeltaKind    `json:"kind"`
	Bead      *model.Bead  `json:"bead"`
	OldStatus model.Status `json:"old_status,omitempty"`
}

// Diff compares two passes bead by bead and returns the changes in bead
// id order. A nil prev produces no deltas: the first pass after a cold
// start establishes the baseline instead of replaying every bead as
// created. Shadows are rebuilt every pass and are not diffed.
func Diff(prev, next *graph.FederatedGraph) []Delta {
	if prev == nil || next == nil {
		return nil
	}

	var deltas []Delta
	for _, b := range next.Beads() {
		old, ok := prev.Bead(b.ID)
		if !ok {
			deltas = append(deltas, Delta{Kind: DeltaCreated, Bead: b})
			continue
		}
		if old.Status == b.Status {
			continue
		}
		deltas = append(deltas, Delta{Kind: DeltaStatusChanged, Bead: b, OldStatus: old.Status})
		if b.Status.Terminal() && !old.Status.Terminal() {
			deltas = append(deltas, Delta{Kind: DeltaClosed, Bead: b, OldStatus: old.Status})
		}
	}
	return deltas
}
