// Package idgen mints the short random identifiers that name
// aggregation passes.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Pass ids appear in event topics, log lines, and export headers, so
// the random part stays lowercase alphanumeric. Ten characters is
// plenty at one id per pass.
const (
	passPrefix = "pass-"
	alphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	randLen    = 10
)

// NewPassID returns a fresh identifier for one aggregation pass,
// such as "pass-k3q9x07b2m".
func NewPassID() (string, error) {
	id, err := nanoid.Generate(alphabet, randLen)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return passPrefix + id, nil
}
