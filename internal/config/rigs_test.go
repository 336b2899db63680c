package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/convoy/internal/model"
)

func writeRigsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rigs.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rigs file: %v", err)
	}
	return path
}

func TestLoadRigs(t *testing.T) {
	path := writeRigsFile(t, `
[rigs.beta]
path = "/srv/rigs/beta"
branch = "develop"
file = "work/issues.jsonl"

[rigs.alpha]
remote = "git@example.com:org/alpha.git"
auth = "token"
token_env = "ALPHA_TOKEN"

[rigs.gamma]
path = "/srv/rigs/gamma"
disabled = true
`)

	f, err := LoadRigs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rigs := f.RigList()
	if len(rigs) != 3 {
		t.Fatalf("expected 3 rigs, got %d", len(rigs))
	}

	// Sorted by name regardless of file order.
	wantNames := []model.RigID{"alpha", "beta", "gamma"}
	for i, want := range wantNames {
		if rigs[i].Name != want {
			t.Fatalf("expected rig %d to be %q, got %q", i, want, rigs[i].Name)
		}
	}

	alpha := rigs[0]
	if alpha.Remote != "git@example.com:org/alpha.git" {
		t.Errorf("alpha remote = %q", alpha.Remote)
	}
	if alpha.AuthMode() != model.AuthToken || alpha.TokenEnv != "ALPHA_TOKEN" {
		t.Errorf("alpha auth = %q token_env = %q", alpha.Auth, alpha.TokenEnv)
	}

	beta := rigs[1]
	if beta.Path != "/srv/rigs/beta" || beta.Branch != "develop" {
		t.Errorf("beta = %+v", beta)
	}
	if beta.BeadsFile() != "work/issues.jsonl" {
		t.Errorf("beta file = %q", beta.BeadsFile())
	}

	if !rigs[2].Disabled {
		t.Error("expected gamma disabled")
	}
}

func TestLoadRigs_Defaults(t *testing.T) {
	path := writeRigsFile(t, `
[rigs.solo]
path = "/srv/rigs/solo"
`)

	f, err := LoadRigs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rig := f.RigList()[0]
	if rig.AuthMode() != model.AuthAgent {
		t.Errorf("expected default auth=agent, got %q", rig.AuthMode())
	}
	if rig.BeadsFile() != model.DefaultBeadsFile {
		t.Errorf("expected default beads file, got %q", rig.BeadsFile())
	}
}

func TestLoadRigs_Errors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		wantSub string
	}{
		{"NoRigs", `[sync]` + "\n" + `git_repo = "/srv/mirror"`, "no [rigs"},
		{"MissingLocator", "[rigs.alpha]\nbranch = \"main\"", "remote or path is required"},
		{"UnknownAuth", "[rigs.alpha]\npath = \"/srv/a\"\nauth = \"password\"", "unknown auth mode"},
		{"MalformedTOML", "[rigs.alpha\npath=", "parse"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRigsFile(t, tc.content)
			_, err := LoadRigs(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("expected error containing %q, got %v", tc.wantSub, err)
			}
		})
	}
}

func TestLoadRigs_MissingFile(t *testing.T) {
	_, err := LoadRigs(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "CONVOY_RIGS") {
		t.Fatalf("expected a hint about CONVOY_RIGS, got %v", err)
	}
}

func TestLoadRigs_SyncAndCacheTables(t *testing.T) {
	path := writeRigsFile(t, `
[rigs.alpha]
path = "/srv/rigs/alpha"

[sync]
git_repo = "/srv/mirror"
s3_bucket = "convoy-exports"
s3_endpoint = "http://minio:9000"

[cache]
url = "postgres://db/convoy"
ttl = "30m"
`)

	f, err := LoadRigs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Sync.GitRepo != "/srv/mirror" {
		t.Errorf("GitRepo = %q", f.Sync.GitRepo)
	}
	if f.Sync.S3Bucket != "convoy-exports" || f.Sync.S3Endpoint != "http://minio:9000" {
		t.Errorf("S3 = %+v", f.Sync)
	}
	if f.Cache.URL != "postgres://db/convoy" || f.Cache.TTL != "30m" {
		t.Errorf("Cache = %+v", f.Cache)
	}
}

func TestSyncEntryDefaults(t *testing.T) {
	var s SyncEntry
	if s.GitFileOrDefault() != "federation.jsonl" {
		t.Errorf("GitFileOrDefault = %q", s.GitFileOrDefault())
	}
	if s.GitBranchOrDefault() != "main" {
		t.Errorf("GitBranchOrDefault = %q", s.GitBranchOrDefault())
	}
	if s.S3KeyOrDefault() != "convoy/federation.jsonl" {
		t.Errorf("S3KeyOrDefault = %q", s.S3KeyOrDefault())
	}
	if s.S3RegionOrDefault() != "us-east-1" {
		t.Errorf("S3RegionOrDefault = %q", s.S3RegionOrDefault())
	}

	s = SyncEntry{GitFile: "custom.jsonl", GitBranch: "backup", S3Key: "k.jsonl", S3Region: "eu-west-1"}
	if s.GitFileOrDefault() != "custom.jsonl" || s.GitBranchOrDefault() != "backup" {
		t.Errorf("custom git values not honored: %+v", s)
	}
	if s.S3KeyOrDefault() != "k.jsonl" || s.S3RegionOrDefault() != "eu-west-1" {
		t.Errorf("custom s3 values not honored: %+v", s)
	}
}

func TestApplyFile(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := &File{Cache: CacheEntry{URL: "postgres://db/convoy", TTL: "30m"}}
	if err := cfg.ApplyFile(f); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.CacheURL != "postgres://db/convoy" {
		t.Errorf("expected file cache url to apply, got %q", cfg.CacheURL)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("expected file ttl to apply, got %v", cfg.CacheTTL)
	}
}

func TestApplyFile_EnvWins(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("CONVOY_CACHE_URL", "env.db")
	t.Setenv("CONVOY_CACHE_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := &File{Cache: CacheEntry{URL: "postgres://db/convoy", TTL: "30m"}}
	if err := cfg.ApplyFile(f); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.CacheURL != "env.db" {
		t.Errorf("expected env cache url to win, got %q", cfg.CacheURL)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected env ttl to win, got %v", cfg.CacheTTL)
	}
}

func TestApplyFile_BadTTL(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ApplyFile(&File{Cache: CacheEntry{TTL: "whenever"}}); err == nil {
		t.Fatal("expected error for bad ttl")
	}
}
