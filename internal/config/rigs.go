package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/convoy/internal/model"
)

// File is the parsed rigs file, usually rigs.toml. It names the
// federation's member repositories and optionally its sync
// destinations and cache settings.
type File struct {
	Rigs  map[string]RigEntry `toml:"rigs"`
	Sync  SyncEntry           `toml:"sync"`
	Cache CacheEntry          `toml:"cache"`
}

// RigEntry is one [rigs.<name>] table. The table key is the rig name.
type RigEntry struct {
	Remote   string `toml:"remote,omitempty"`
	Path     string `toml:"path,omitempty"`
	Auth     string `toml:"auth,omitempty"`
	TokenEnv string `toml:"token_env,omitempty"`
	Branch   string `toml:"branch,omitempty"`
	File     string `toml:"file,omitempty"`
	Disabled bool   `toml:"disabled,omitempty"`
}

// SyncEntry is the optional [sync] table. A destination is enabled by
// setting its repo or bucket.
type SyncEntry struct {
	GitRepo   string `toml:"git_repo,omitempty"`
	GitFile   string `toml:"git_file,omitempty"`
	GitBranch string `toml:"git_branch,omitempty"`

	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Key      string `toml:"s3_key,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
}

// CacheEntry is the optional [cache] table.
type CacheEntry struct {
	URL string `toml:"url,omitempty"`
	TTL string `toml:"ttl,omitempty"`
}

// LoadRigs reads and validates the rigs file.
func LoadRigs(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("rigs file %s not found (set CONVOY_RIGS or create one)", path)
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Rigs) == 0 {
		return nil, fmt.Errorf("%s: no [rigs.<name>] tables", path)
	}
	for _, rig := range f.RigList() {
		if err := rig.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &f, nil
}

// RigList converts the rig tables into model form. TOML tables are
// unordered, so rigs are sorted by name; every load yields the same
// federation order and therewith the same merge result.
func (f *File) RigList() []model.Rig {
	names := make([]string, 0, len(f.Rigs))
	for name := range f.Rigs {
		names = append(names, name)
	}
	sort.Strings(names)

	rigs := make([]model.Rig, 0, len(names))
	for _, name := range names {
		e := f.Rigs[name]
		rigs = append(rigs, model.Rig{
			Name:     model.RigID(name),
			Remote:   e.Remote,
			Path:     e.Path,
			Auth:     model.AuthMode(e.Auth),
			TokenEnv: e.TokenEnv,
			Branch:   e.Branch,
			File:     e.File,
			Disabled: e.Disabled,
		})
	}
	return rigs
}

// GitFileOrDefault returns the export path inside the sync repo.
func (s SyncEntry) GitFileOrDefault() string {
	if s.GitFile != "" {
		return s.GitFile
	}
	return "federation.jsonl"
}

// GitBranchOrDefault returns the sync repo branch.
func (s SyncEntry) GitBranchOrDefault() string {
	if s.GitBranch != "" {
		return s.GitBranch
	}
	return "main"
}

// S3KeyOrDefault returns the export object key.
func (s SyncEntry) S3KeyOrDefault() string {
	if s.S3Key != "" {
		return s.S3Key
	}
	return "convoy/federation.jsonl"
}

// S3RegionOrDefault returns the bucket region.
func (s SyncEntry) S3RegionOrDefault() string {
	if s.S3Region != "" {
		return s.S3Region
	}
	return "us-east-1"
}

// ApplyFile overlays the file's [cache] table onto c. Environment
// variables win over the file; the file wins over built-in defaults.
func (c *Config) ApplyFile(f *File) error {
	if f.Cache.URL != "" && os.Getenv("CONVOY_CACHE_URL") == "" {
		c.CacheURL = f.Cache.URL
	}
	if f.Cache.TTL != "" && os.Getenv("CONVOY_CACHE_TTL") == "" {
		d, err := time.ParseDuration(f.Cache.TTL)
		if err != nil {
			return fmt.Errorf("[cache] ttl: %w", err)
		}
		c.CacheTTL = d
	}
	return nil
}
