package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BeadID identifies one bead. Federations rely on per-rig id prefixes
// (e.g. "alpha-12"), so a well-configured federation never produces the
// same id in two rigs.
type BeadID string

// String returns the string representation of the id.
func (id BeadID) String() string {
	return string(id)
}

// RigID names a member repository. It is a distinct type from BeadID so
// the two can never be swapped in a call.
type RigID string

// String returns the string representation of the rig name.
func (id RigID) String() string {
	return string(id)
}

// Status represents the current state of a bead.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusClosed     Status = "closed"
	StatusTombstone  Status = "tombstone"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred, StatusClosed, StatusTombstone:
		return true
	}
	return false
}

// Terminal reports whether the status satisfies dependencies. Closed
// beads and tombstones no longer block anything; a tombstone is a
// logical delete and is never physically removed from its rig.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusTombstone
}

// Priority orders work from P0 (most urgent) to P4. The JSON wire form
// is the bare integer.
type Priority int

const (
	P0 Priority = iota
	P1
	P2
	P3
	P4
)

// String returns the display form, e.g. "P2".
func (p Priority) String() string {
	return fmt.Sprintf("P%d", int(p))
}

// IsValid checks whether the priority is inside the P0..P4 range.
func (p Priority) IsValid() bool {
	return p >= P0 && p <= P4
}

// ParsePriority accepts "2", "P2" or "p2" and returns the priority.
func ParsePriority(s string) (Priority, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "P"), "p")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid priority %q", s)
	}
	p := Priority(n)
	if !p.IsValid() {
		return 0, fmt.Errorf("priority %q out of range P0..P4", s)
	}
	return p, nil
}

// IssueType categorizes the kind of work a bead tracks.
// Well-known constants are provided below, but issue types are
// extensible; custom types added by a rig's own tooling are valid.
type IssueType string

const (
	TypeBug     IssueType = "bug"
	TypeFeature IssueType = "feature"
	TypeTask    IssueType = "task"
	TypeEpic    IssueType = "epic"
	TypeChore   IssueType = "chore"
)

// String returns the string representation of the issue type.
func (t IssueType) String() string {
	return string(t)
}

// IsValid reports whether the issue type is a non-empty string.
// Issue types are extensible, so any non-empty value is accepted.
func (t IssueType) IsValid() bool {
	return t != ""
}

// Bead is one unit of tracked work, native to exactly one rig. Beads are
// created by parsing a source record and mutated only by re-parsing an
// updated record; the engine never edits business fields locally.
type Bead struct {
	ID          BeadID    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	IssueType   IssueType `json:"issue_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Assignee    string    `json:"assignee,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	DependsOn   []BeadID  `json:"depends_on,omitempty"`
	Blocks      []BeadID  `json:"blocks,omitempty"`
	Notes       string    `json:"notes,omitempty"`

	// Origin is the rig the bead was aggregated from. The aggregator
	// stamps it; source records never carry it.
	Origin RigID `json:"origin,omitempty"`
}

// Normalize canonicalizes the bead's set-valued fields: labels are
// sorted and deduplicated, dependency lists are deduplicated in first
// occurrence order, and the bead's own id is stripped from DependsOn and
// Blocks. Parsing applies it to every record, so a bead never depends on
// itself and identical raw content always yields identical values.
func (b *Bead) Normalize() {
	b.Labels = normalizeLabels(b.Labels)
	b.DependsOn = normalizeIDs(b.ID, b.DependsOn)
	b.Blocks = normalizeIDs(b.ID, b.Blocks)
}

// Validate reports the first missing or invalid required field.
func (b *Bead) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("bead id is required")
	}
	if b.Title == "" {
		return fmt.Errorf("bead %s: title is required", b.ID)
	}
	if !b.Status.IsValid() {
		return fmt.Errorf("bead %s: unknown status %q", b.ID, b.Status)
	}
	if !b.Priority.IsValid() {
		return fmt.Errorf("bead %s: priority %d out of range P0..P4", b.ID, int(b.Priority))
	}
	if !b.IssueType.IsValid() {
		return fmt.Errorf("bead %s: issue type is required", b.ID)
	}
	if b.CreatedAt.IsZero() {
		return fmt.Errorf("bead %s: created_at is required", b.ID)
	}
	if b.UpdatedAt.IsZero() {
		return fmt.Errorf("bead %s: updated_at is required", b.ID)
	}
	return nil
}

func normalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func normalizeIDs(self BeadID, ids []BeadID) []BeadID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[BeadID]struct{}, len(ids))
	out := make([]BeadID, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == self {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
