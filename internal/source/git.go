package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alfredjeanlab/convoy/internal/model"
)

// TokenProvider resolves an auth token for rigs whose TokenEnv variable
// is unset. Used for deployments where tokens come from a secret store
// rather than the environment.
type TokenProvider interface {
	Token(rig *model.Rig) (string, error)
}

// GitSource fetches rig records over git. Remote rigs are kept as
// shallow no-checkout clones under a directory this source owns; rigs
// with a local path are read in place. Content is always read from the
// object store via git show, so the clones never acquire a dirty
// working tree.
type GitSource struct {
	dir    string
	tokens TokenProvider

	mu    sync.Mutex
	locks map[model.RigID]*sync.Mutex
}

// NewGitSource creates a git source whose remote clones live under dir.
// tokens may be nil when every token rig resolves through its TokenEnv.
func NewGitSource(dir string, tokens TokenProvider) *GitSource {
	return &GitSource{
		dir:    dir,
		tokens: tokens,
		locks:  make(map[model.RigID]*sync.Mutex),
	}
}

// Fetch refreshes the rig's clone and returns the records file at the
// refreshed revision. At most one fetch runs per rig at a time; clones
// are private to this source.
func (g *GitSource) Fetch(ctx context.Context, rig *model.Rig) (*Checkout, error) {
	lock := g.rigLock(rig.Name)
	lock.Lock()
	defer lock.Unlock()

	dir, readRef, err := g.ensure(ctx, rig)
	if err != nil {
		return nil, err
	}

	// Pin the revision first so content and revision cannot disagree.
	out, err := g.git(ctx, dir, nil, "rev-parse", readRef)
	if err != nil {
		// rev-parse fails on a repository with no commits yet.
		return nil, notInitialized(rig.Name, err)
	}
	revision := strings.TrimSpace(out)

	content, err := g.git(ctx, dir, nil, "show", revision+":"+rig.BeadsFile())
	if err != nil {
		// The revision exists but the records file does not.
		return nil, notInitialized(rig.Name, err)
	}

	return &Checkout{Content: []byte(content), Revision: revision}, nil
}

// ensure makes the rig's repository available and returns its directory
// plus the ref to read from.
func (g *GitSource) ensure(ctx context.Context, rig *model.Rig) (dir, readRef string, err error) {
	if rig.Path != "" {
		// Local rig: read the committed state in place, no fetching.
		if _, err := os.Stat(filepath.Join(rig.Path, ".git")); err != nil {
			return "", "", unreachable(rig.Name, fmt.Errorf("local rig path: %w", err))
		}
		return rig.Path, "HEAD", nil
	}

	cfg, err := g.authConfig(rig)
	if err != nil {
		return "", "", unreachable(rig.Name, err)
	}

	dir = filepath.Join(g.dir, string(rig.Name))
	if _, statErr := os.Stat(filepath.Join(dir, ".git")); statErr != nil {
		args := []string{"clone", "--depth", "1", "--no-checkout"}
		if rig.Branch != "" {
			args = append(args, "--branch", rig.Branch)
		}
		args = append(args, rig.Remote, dir)
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			return "", "", unreachable(rig.Name, fmt.Errorf("clones dir: %w", err))
		}
		if _, err := g.git(ctx, g.dir, cfg, args...); err != nil {
			return "", "", unreachable(rig.Name, err)
		}
		return dir, "HEAD", nil
	}

	fetchRef := "HEAD"
	if rig.Branch != "" {
		fetchRef = rig.Branch
	}
	if _, err := g.git(ctx, dir, cfg, "fetch", "origin", fetchRef); err != nil {
		return "", "", unreachable(rig.Name, err)
	}
	return dir, "FETCH_HEAD", nil
}

// authConfig returns per-invocation git config flags for the rig's auth
// mode. Token auth rides an ephemeral http.extraHeader so the token is
// never written to clone config on disk.
func (g *GitSource) authConfig(rig *model.Rig) ([]string, error) {
	if rig.AuthMode() != model.AuthToken {
		return nil, nil
	}
	token := ""
	if rig.TokenEnv != "" {
		token = os.Getenv(rig.TokenEnv)
	}
	if token == "" && g.tokens != nil {
		var err error
		token, err = g.tokens.Token(rig)
		if err != nil {
			return nil, fmt.Errorf("resolving token: %w", err)
		}
	}
	if token == "" {
		return nil, fmt.Errorf("token auth configured but no token available (env %s)", rig.TokenEnv)
	}
	return []string{"http.extraHeader=Authorization: Bearer " + token}, nil
}

func (g *GitSource) rigLock(name model.RigID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[name]
	if !ok {
		l = &sync.Mutex{}
		g.locks[name] = l
	}
	return l
}

// git runs one git command and returns its stdout. Stderr is folded
// into the error so callers see git's own diagnostic.
func (g *GitSource) git(ctx context.Context, dir string, cfg []string, args ...string) (string, error) {
	full := make([]string, 0, 2*len(cfg)+len(args))
	for _, c := range cfg {
		full = append(full, "-c", c)
	}
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}
