// Package sheriff runs the background aggregation loop: poll every rig,
// diff the merged graph against the previous pass, sync the snapshot to
// the cache and export destinations, publish deltas, sleep, repeat.
package sheriff

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/convoy/internal/aggregate"
	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/events"
	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
	convoysync "github.com/alfredjeanlab/convoy/internal/sync"
)

// State names the daemon's current phase.
type State string

const (
	StateIdle     State = "idle"
	StatePolling  State = "polling"
	StateDiffing  State = "diffing"
	StateSyncing  State = "syncing"
	StateSleeping State = "sleeping"
	StateStopped  State = "stopped"
)

// DefaultInterval is the sleep between passes when Config.Interval is
// unset.
const DefaultInterval = 5 * time.Minute

// DefaultPassTimeout bounds one pass when Config.PassTimeout is unset.
const DefaultPassTimeout = 2 * time.Minute

// Config assembles a Daemon.
type Config struct {
	Aggregator   *aggregate.Aggregator
	Rigs         []model.Rig
	Cache        cache.Cache              // optional; nil skips snapshot persistence
	Publisher    events.Publisher         // optional; nil falls back to NoopPublisher
	Destinations []convoysync.Destination // optional JSONL export targets
	Interval     time.Duration            // default DefaultInterval
	PassTimeout  time.Duration            // default DefaultPassTimeout
	Logger       *slog.Logger             // default slog.Default()
}

// Daemon is one sheriff instance. The previous-pass state lives on the
// instance, so independent daemons can run side by side against
// separate caches.
type Daemon struct {
	agg         *aggregate.Aggregator
	rigs        []model.Rig
	cache       cache.Cache
	pub         events.Publisher
	dests       []convoysync.Destination
	interval    time.Duration
	passTimeout time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	state  State
	last   *cache.Snapshot
	report *aggregate.Report

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New assembles a daemon. It does not start polling; call Start for the
// background loop or RunOnce for a single pass.
func New(cfg Config) *Daemon {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	passTimeout := cfg.PassTimeout
	if passTimeout <= 0 {
		passTimeout = DefaultPassTimeout
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		agg:         cfg.Aggregator,
		rigs:        cfg.Rigs,
		cache:       cfg.Cache,
		pub:         pub,
		dests:       cfg.Destinations,
		interval:    interval,
		passTimeout: passTimeout,
		logger:      logger,
		state:       StateIdle,
	}
}

// State reports the daemon's current phase.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Snapshot returns the most recent pass result, or nil before the first
// completed pass.
func (d *Daemon) Snapshot() *cache.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Report returns the most recent pass report, or nil before the first
// completed pass.
func (d *Daemon) Report() *aggregate.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.report
}

// Start begins the poll loop. The first pass runs immediately.
func (d *Daemon) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()
}

// Stop cancels the loop and waits for it to finish. Cancellation
// interrupts Sleeping only; an in-flight pass runs to its own timeout
// so clone state is never left half-fetched.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

func (d *Daemon) run(ctx context.Context) {
	defer d.setState(StateStopped)

	d.warmStart(ctx)

	for {
		// The pass context is detached from the loop context: Stop must
		// not hard-cancel a fetch mid-flight.
		passCtx, cancelPass := context.WithTimeout(context.WithoutCancel(ctx), d.passTimeout)
		err := d.cycle(passCtx)
		cancelPass()

		if err != nil {
			switch {
			case errors.Is(err, aggregate.ErrNoRigs):
				d.logger.Error("no rigs configured, stopping", "err", err)
				return
			default:
				d.logger.Error("pass failed", "err", err)
			}
		}
		if ctx.Err() != nil {
			return
		}

		d.setState(StateSleeping)
		timer := time.NewTimer(d.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunOnce executes a single poll-diff-sync pass and returns the daemon
// to idle. CLI one-shots use it without Start.
func (d *Daemon) RunOnce(ctx context.Context) error {
	if d.Snapshot() == nil {
		d.warmStart(ctx)
	}
	err := d.cycle(ctx)
	d.setState(StateIdle)
	return err
}

// warmStart seeds the previous-pass state from the cache so the first
// diff after a restart compares against the last persisted pass.
func (d *Daemon) warmStart(ctx context.Context) {
	if d.cache == nil {
		return
	}
	snap, err := d.cache.Load(ctx)
	if err != nil {
		d.logger.Warn("cache load failed", "err", err)
		return
	}
	if snap == nil {
		return
	}
	d.mu.Lock()
	d.last = snap
	d.mu.Unlock()
	d.logger.Info("resuming from cached snapshot", "pass", snap.PassID, "age", snap.Age())
}

func (d *Daemon) cycle(ctx context.Context) error {
	d.setState(StatePolling)
	g, report, err := d.agg.Run(ctx, d.rigs)
	if err != nil {
		return err
	}

	d.setState(StateDiffing)
	var prevGraph *graph.FederatedGraph
	if prev := d.Snapshot(); prev != nil {
		prevGraph = prev.Graph
	}
	deltas := Diff(prevGraph, g)

	d.setState(StateSyncing)
	snap := &cache.Snapshot{
		Graph:      g,
		CapturedAt: report.StartedAt,
		PassID:     report.PassID,
		Revisions:  report.Revisions(),
	}
	if d.cache != nil {
		if err := d.cache.Store(ctx, snap); err != nil {
			// A lost cache write degrades restart freshness, nothing else.
			d.logger.Warn("cache store failed", "err", err)
		}
	}
	d.publish(ctx, deltas, report, len(g.Shadows()))
	d.export(ctx, snap)

	d.mu.Lock()
	d.last = snap
	d.report = report
	d.mu.Unlock()

	d.logger.Info("pass completed",
		"pass", report.PassID,
		"rigs", len(report.Rigs),
		"beads", report.TotalBeads(),
		"deltas", len(deltas),
		"degraded", report.Degraded(),
		"elapsed", report.Duration)
	return nil
}

// publish emits one event per delta plus the pass summary. Publish
// failures are logged and never fail the pass.
func (d *Daemon) publish(ctx context.Context, deltas []Delta, report *aggregate.Report, shadows int) {
	for _, delta := range deltas {
		var (
			topic string
			event any
		)
		switch delta.Kind {
		case DeltaCreated:
			topic, event = events.TopicBeadCreated, events.BeadCreated{Bead: delta.Bead}
		case DeltaStatusChanged:
			topic, event = events.TopicBeadStatusChanged, events.BeadStatusChanged{Bead: delta.Bead, OldStatus: delta.OldStatus}
		case DeltaClosed:
			topic, event = events.TopicBeadClosed, events.BeadClosed{Bead: delta.Bead}
		default:
			continue
		}
		if err := d.pub.Publish(ctx, topic, event); err != nil {
			d.logger.Warn("event publish failed", "topic", topic, "err", err)
		}
	}

	var degraded []string
	for i := range report.Rigs {
		if report.Rigs[i].Degraded {
			degraded = append(degraded, string(report.Rigs[i].Rig))
		}
	}
	completed := events.PassCompleted{
		PassID:       report.PassID,
		Rigs:         len(report.Rigs),
		Beads:        report.TotalBeads(),
		Shadows:      shadows,
		Degraded:     report.Degraded(),
		DegradedRigs: degraded,
		DurationMS:   report.Duration.Milliseconds(),
	}
	if err := d.pub.Publish(ctx, events.TopicPassCompleted, completed); err != nil {
		d.logger.Warn("event publish failed", "topic", events.TopicPassCompleted, "err", err)
	}
}

// export ships the JSONL rendering of the pass to every destination,
// isolating failures per destination.
func (d *Daemon) export(ctx context.Context, snap *cache.Snapshot) {
	if len(d.dests) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := convoysync.ExportJSONL(snap, &buf); err != nil {
		d.logger.Error("export encode failed", "err", err)
		return
	}
	data := buf.Bytes()
	for i, dest := range d.dests {
		if err := dest.Write(ctx, data); err != nil {
			d.logger.Error("export destination write failed", "destination", i, "err", err)
		}
	}
}

func (d *Daemon) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}
