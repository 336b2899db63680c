// Package events defines the delta events the sheriff emits after each
// aggregation pass and the NATS publisher/subscriber used to carry them.
package events

import (
	"context"

	"github.com/alfredjeanlab/convoy/internal/model"
)

// Event topic constants
const (
	TopicBeadCreated       = "convoy.bead.created"
	TopicBeadStatusChanged = "convoy.bead.status_changed"
	TopicBeadClosed        = "convoy.bead.closed"
	TopicPassCompleted     = "convoy.pass.completed"
)

// Event types

// BeadCreated fires when a bead appears in the federation for the first
// time since the previous pass.
type BeadCreated struct {
	Bead *model.Bead `json:"bead"`
}

// BeadStatusChanged fires when a bead's status differs from the
// previous pass. Terminal transitions additionally fire BeadClosed.
type BeadStatusChanged struct {
	Bead      *model.Bead  `json:"bead"`
	OldStatus model.Status `json:"old_status"`
}

// BeadClosed fires when a bead reaches a terminal status (closed or
// tombstone).
type BeadClosed struct {
	Bead *model.Bead `json:"bead"`
}

// PassCompleted summarizes one finished aggregation pass.
type PassCompleted struct {
	PassID       string   `json:"pass_id"`
	Rigs         int      `json:"rigs"`
	Beads        int      `json:"beads"`
	Shadows      int      `json:"shadows"`
	Degraded     bool     `json:"degraded"`
	DegradedRigs []string `json:"degraded_rigs,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
