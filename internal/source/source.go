// Package source fetches issue records from rig repositories.
//
// A Source yields the raw bytes of a rig's records file at a specific
// revision. Failures are classified, not retried: callers decide whether
// to fall back to cached data or treat the rig as empty.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/convoy/internal/model"
)

// Checkout is the result of fetching a rig: the records file content and
// the revision it was read from. Fetching the same revision twice yields
// the same content.
type Checkout struct {
	Content  []byte
	Revision string
}

// Source fetches the current records file of a rig.
type Source interface {
	Fetch(ctx context.Context, rig *model.Rig) (*Checkout, error)
}

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	// KindUnreachable means the rig could not be contacted: network
	// failure, auth rejection, or a missing local path. Callers fall
	// back to cached data for the rig.
	KindUnreachable ErrorKind = "unreachable"
	// KindNotInitialized means the rig was reached but carries no
	// records: no commits yet, or no records file at the fetched
	// revision. Callers treat the rig as empty.
	KindNotInitialized ErrorKind = "not-initialized"
)

// SourceError is a classified fetch failure for one rig.
type SourceError struct {
	Rig  model.RigID
	Kind ErrorKind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("rig %s: %s: %v", e.Rig, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err is a fetch failure of kind
// KindUnreachable.
func IsUnreachable(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Kind == KindUnreachable
}

// IsNotInitialized reports whether err is a fetch failure of kind
// KindNotInitialized.
func IsNotInitialized(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Kind == KindNotInitialized
}

func unreachable(rig model.RigID, err error) *SourceError {
	return &SourceError{Rig: rig, Kind: KindUnreachable, Err: err}
}

func notInitialized(rig model.RigID, err error) *SourceError {
	return &SourceError{Rig: rig, Kind: KindNotInitialized, Err: err}
}
