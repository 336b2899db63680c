// Package config loads the engine configuration: operational knobs
// from CONVOY_* environment variables and the federation's member
// rigs from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	RigsFile  string // CONVOY_RIGS (default "rigs.toml")
	CacheURL  string // CONVOY_CACHE_URL (default "convoy.db"; postgres:// selects the postgres backend)
	CloneDir  string // CONVOY_CLONE_DIR (default <user cache dir>/convoy/rigs)
	HTTPAddr  string // CONVOY_HTTP_ADDR (default ":8080")
	NATSURL   string // CONVOY_NATS_URL (optional, empty = no events)
	AuthToken string // CONVOY_AUTH_TOKEN (optional, empty = auth disabled)

	// Sheriff settings
	Interval    time.Duration // CONVOY_INTERVAL (default 5m)
	PassTimeout time.Duration // CONVOY_PASS_TIMEOUT (default 2m)
	Concurrency int           // CONVOY_CONCURRENCY (default 4)

	// CacheTTL bounds how old a cached snapshot may be before reads
	// warn and one-shot commands re-aggregate. CONVOY_CACHE_TTL
	// (default 15m).
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	c := &Config{
		RigsFile:  envOrDefault("CONVOY_RIGS", "rigs.toml"),
		CacheURL:  envOrDefault("CONVOY_CACHE_URL", "convoy.db"),
		CloneDir:  envOrDefault("CONVOY_CLONE_DIR", defaultCloneDir()),
		HTTPAddr:  envOrDefault("CONVOY_HTTP_ADDR", ":8080"),
		NATSURL:   os.Getenv("CONVOY_NATS_URL"),
		AuthToken: os.Getenv("CONVOY_AUTH_TOKEN"),
	}

	var err error
	if c.Interval, err = durationEnv("CONVOY_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if c.PassTimeout, err = durationEnv("CONVOY_PASS_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if c.CacheTTL, err = durationEnv("CONVOY_CACHE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	c.Concurrency = 4
	if v := os.Getenv("CONVOY_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("CONVOY_CONCURRENCY: invalid value %q", v)
		}
		c.Concurrency = n
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func defaultCloneDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "convoy", "rigs")
	}
	return filepath.Join(os.TempDir(), "convoy-rigs")
}
