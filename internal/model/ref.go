package model

import (
	"fmt"
	"strings"
)

// BeadRefScheme prefixes cross-repository bead references.
const BeadRefScheme = "bead://"

// BeadRef addresses a bead owned by another rig. The wire form is
// bead://<rig>/<bead-id>; only the aggregation layer resolves refs, and
// everything below it treats them as opaque strings.
type BeadRef struct {
	Rig RigID
	ID  BeadID
}

// String renders the ref in bead://<rig>/<bead-id> form.
func (r BeadRef) String() string {
	return BeadRefScheme + string(r.Rig) + "/" + string(r.ID)
}

// IsBeadRef reports whether s carries the bead:// scheme. Refs without
// the scheme are external URIs and pass through unresolved.
func IsBeadRef(s string) bool {
	return strings.HasPrefix(s, BeadRefScheme)
}

// ParseBeadRef parses a bead://<rig>/<bead-id> reference.
func ParseBeadRef(s string) (BeadRef, error) {
	rest, ok := strings.CutPrefix(s, BeadRefScheme)
	if !ok {
		return BeadRef{}, fmt.Errorf("bead ref %q: missing %s scheme", s, BeadRefScheme)
	}
	rig, id, ok := strings.Cut(rest, "/")
	if !ok || rig == "" || id == "" {
		return BeadRef{}, fmt.Errorf("bead ref %q: want bead://<rig>/<bead-id>", s)
	}
	return BeadRef{Rig: RigID(rig), ID: BeadID(id)}, nil
}
