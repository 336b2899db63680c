package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alfredjeanlab/convoy/internal/aggregate"
	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/config"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/alfredjeanlab/convoy/internal/sheriff"
	"github.com/alfredjeanlab/convoy/internal/source"
	convoysync "github.com/alfredjeanlab/convoy/internal/sync"
)

// loadFederation reads the rigs file and applies its [cache] settings
// to cfg. Rigs come back sorted by name.
func loadFederation(cfg *config.Config) (*config.File, []model.Rig, error) {
	f, err := config.LoadRigs(cfg.RigsFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyFile(f); err != nil {
		return nil, nil, err
	}
	return f, f.RigList(), nil
}

// newAggregator builds the git-backed fetch pipeline.
func newAggregator(cfg *config.Config, logger *slog.Logger) *aggregate.Aggregator {
	src := source.NewGitSource(cfg.CloneDir, nil)
	return aggregate.New(src, aggregate.Options{
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	})
}

// buildDestinations constructs export destinations from the [sync]
// table. A destination that cannot be constructed is logged and
// skipped; the others still run.
func buildDestinations(ctx context.Context, sync config.SyncEntry, logger *slog.Logger) []convoysync.Destination {
	var dests []convoysync.Destination
	if sync.S3Bucket != "" {
		s3Dest, err := convoysync.NewS3Destination(ctx, sync.S3Bucket, sync.S3KeyOrDefault(), sync.S3RegionOrDefault(), sync.S3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", sync.S3Bucket, "key", sync.S3KeyOrDefault())
		}
	}
	if sync.GitRepo != "" {
		dests = append(dests, convoysync.NewGitDestination(sync.GitRepo, sync.GitFileOrDefault(), sync.GitBranchOrDefault()))
		logger.Info("sync git destination enabled", "repo", sync.GitRepo, "file", sync.GitFileOrDefault())
	}
	return dests
}

// quietLogger suppresses the pass machinery's info chatter during
// query commands; warnings still reach the operator.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// runPass executes one aggregation pass through a transient daemon so
// snapshot persistence matches the sheriff's, then returns the result.
func runPass(ctx context.Context, cfg *config.Config, rigs []model.Rig, c cache.Cache, logger *slog.Logger) (*cache.Snapshot, *aggregate.Report, error) {
	d := sheriff.New(sheriff.Config{
		Aggregator:  newAggregator(cfg, logger),
		Rigs:        rigs,
		Cache:       c,
		Interval:    cfg.Interval,
		PassTimeout: cfg.PassTimeout,
		Logger:      logger,
	})
	if err := d.RunOnce(ctx); err != nil {
		return nil, nil, err
	}
	return d.Snapshot(), d.Report(), nil
}

// localSnapshot returns the current federation snapshot for query
// commands: the cached one when present (with a staleness warning),
// otherwise a fresh single pass that also primes the cache.
func localSnapshot(ctx context.Context, cfg *config.Config) (*cache.Snapshot, error) {
	_, snap, err := localSnapshotWithFile(ctx, cfg)
	return snap, err
}

// localSnapshotWithFile is localSnapshot for callers that also need the
// parsed rigs file (e.g. for its [sync] table).
func localSnapshotWithFile(ctx context.Context, cfg *config.Config) (*config.File, *cache.Snapshot, error) {
	file, rigs, err := loadFederation(cfg)
	if err != nil {
		return nil, nil, err
	}

	c, err := cache.Open(cfg.CacheURL)
	if err != nil {
		return nil, nil, err
	}
	defer c.Close()

	snap, err := c.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading cached snapshot: %w", err)
	}
	if snap != nil {
		warnStale(snap, cfg.CacheTTL)
		return file, snap, nil
	}

	fmt.Fprintln(os.Stderr, "cache is empty; running an aggregation pass")
	snap, _, err = runPass(ctx, cfg, rigs, c, quietLogger())
	return file, snap, err
}
