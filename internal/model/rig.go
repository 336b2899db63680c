package model

import (
	"errors"
	"fmt"
)

// AuthMode selects how the engine authenticates against a rig's remote.
type AuthMode string

const (
	// AuthAgent relies on ambient credentials: ssh-agent, a git
	// credential helper, or an unauthenticated remote.
	AuthAgent AuthMode = "agent"
	// AuthToken injects a bearer token resolved from the environment.
	AuthToken AuthMode = "token"
)

// String returns the string representation of the auth mode.
func (a AuthMode) String() string {
	return string(a)
}

// IsValid checks whether the auth mode is a known value.
func (a AuthMode) IsValid() bool {
	switch a {
	case AuthAgent, AuthToken:
		return true
	}
	return false
}

// DefaultBeadsFile is the path of a rig's issue records, relative to the
// repository root.
const DefaultBeadsFile = ".beads/issues.jsonl"

// Rig describes one member repository of the federation. Rigs come from
// configuration and are read-only to the engine; authority over a rig's
// data stays with the rig.
type Rig struct {
	Name     RigID    `json:"name"`
	Remote   string   `json:"remote,omitempty"`
	Path     string   `json:"path,omitempty"`
	Auth     AuthMode `json:"auth,omitempty"`
	TokenEnv string   `json:"token_env,omitempty"`
	Branch   string   `json:"branch,omitempty"`
	File     string   `json:"file,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
}

// BeadsFile returns the records path inside the rig, falling back to
// DefaultBeadsFile when unset.
func (r Rig) BeadsFile() string {
	if r.File != "" {
		return r.File
	}
	return DefaultBeadsFile
}

// AuthMode returns the configured auth mode, defaulting to AuthAgent.
func (r Rig) AuthMode() AuthMode {
	if r.Auth == "" {
		return AuthAgent
	}
	return r.Auth
}

// Validate reports configuration errors that make the rig unusable.
func (r Rig) Validate() error {
	if r.Name == "" {
		return errors.New("rig name is required")
	}
	if r.Remote == "" && r.Path == "" {
		return fmt.Errorf("rig %s: remote or path is required", r.Name)
	}
	if r.Auth != "" && !r.Auth.IsValid() {
		return fmt.Errorf("rig %s: unknown auth mode %q", r.Name, r.Auth)
	}
	return nil
}
