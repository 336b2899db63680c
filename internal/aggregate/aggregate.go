package aggregate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/idgen"
	"github.com/alfredjeanlab/convoy/internal/jsonl"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/alfredjeanlab/convoy/internal/source"
)

// ErrNoRigs is returned when a pass is requested with no enabled rigs.
// It is the only configuration error a pass treats as fatal; anything
// that goes wrong with an individual rig degrades that rig instead.
var ErrNoRigs = errors.New("no rigs configured")

// DefaultConcurrency bounds parallel rig fetches when Options.Concurrency
// is unset.
const DefaultConcurrency = 4

// Options tune an Aggregator.
type Options struct {
	// Concurrency is the maximum number of rigs fetched in parallel.
	Concurrency int
	// Logger receives per-rig warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Aggregator runs federation passes: fetch every rig, parse its records,
// merge them into one graph, and synthesize shadow beads for cross-repo
// references. A pass never mutates rigs; it only reads.
type Aggregator struct {
	src    source.Source
	conc   int
	logger *slog.Logger
}

// New creates an aggregator reading rig content from src.
func New(src source.Source, opts Options) *Aggregator {
	conc := opts.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{src: src, conc: conc, logger: logger}
}

// RigReport is the outcome of one rig within a pass.
type RigReport struct {
	Rig       model.RigID `json:"rig"`
	Revision  string      `json:"revision,omitempty"`
	BeadCount int         `json:"bead_count"`
	// Degraded marks a rig whose content could not be fetched this
	// pass. Its beads are simply absent from the result.
	Degraded bool   `json:"degraded,omitempty"`
	Err      string `json:"err,omitempty"`
	// RecordErrors lists lines the parser rejected. A rig with record
	// errors still contributes its well-formed beads.
	RecordErrors []*jsonl.RecordError `json:"record_errors,omitempty"`
}

// Collision records an id owned by more than one rig. The most recently
// updated bead wins; the other is dropped from the merged graph.
type Collision struct {
	ID      model.BeadID `json:"id"`
	Kept    model.RigID  `json:"kept"`
	Dropped model.RigID  `json:"dropped"`
}

// Report describes one completed pass.
type Report struct {
	PassID     string        `json:"pass_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Rigs       []RigReport   `json:"rigs"`
	Collisions []Collision   `json:"collisions,omitempty"`
}

// Degraded reports whether any rig failed to contribute this pass.
func (r *Report) Degraded() bool {
	for i := range r.Rigs {
		if r.Rigs[i].Degraded {
			return true
		}
	}
	return false
}

// TotalBeads sums the contributed bead counts across rigs.
func (r *Report) TotalBeads() int {
	n := 0
	for i := range r.Rigs {
		n += r.Rigs[i].BeadCount
	}
	return n
}

// Revisions returns the fetched revision per rig, for rigs that had one.
func (r *Report) Revisions() map[model.RigID]string {
	out := make(map[model.RigID]string, len(r.Rigs))
	for i := range r.Rigs {
		if r.Rigs[i].Revision != "" {
			out[r.Rigs[i].Rig] = r.Rigs[i].Revision
		}
	}
	return out
}

// rigResult carries one rig's fetch+parse outcome from its goroutine to
// the sequential merge.
type rigResult struct {
	report RigReport
	beads  []*model.Bead
}

// Run executes one pass over the given rigs. Disabled rigs are skipped.
// Individual rig failures degrade that rig in the report; the pass
// itself fails only when no rigs are enabled or ctx is done.
func (a *Aggregator) Run(ctx context.Context, rigs []model.Rig) (*graph.FederatedGraph, *Report, error) {
	enabled := make([]model.Rig, 0, len(rigs))
	for _, rig := range rigs {
		if !rig.Disabled {
			enabled = append(enabled, rig)
		}
	}
	if len(enabled) == 0 {
		return nil, nil, ErrNoRigs
	}

	passID, err := idgen.NewPassID()
	if err != nil {
		return nil, nil, fmt.Errorf("pass id: %w", err)
	}
	started := time.Now()

	results := make([]rigResult, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.conc)
	for i := range enabled {
		i, rig := i, enabled[i]
		g.Go(func() error {
			results[i] = a.fetchRig(gctx, rig)
			return nil
		})
	}
	// Goroutines capture failures per rig and never return them, so
	// Wait's error is always nil. Cancellation surfaces below.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report := &Report{PassID: passID, StartedAt: started}

	// Merge in configuration order, never completion order, so pass
	// output is stable across runs.
	merged := make(map[model.BeadID]*model.Bead)
	for i := range results {
		res := &results[i]
		report.Rigs = append(report.Rigs, res.report)
		for _, b := range res.beads {
			prev, taken := merged[b.ID]
			if !taken {
				merged[b.ID] = b
				continue
			}
			kept, dropped := prev, b
			if b.UpdatedAt.After(prev.UpdatedAt) {
				kept, dropped = b, prev
				merged[b.ID] = b
			}
			report.Collisions = append(report.Collisions, Collision{
				ID: b.ID, Kept: kept.Origin, Dropped: dropped.Origin,
			})
			a.logger.Warn("bead id collision",
				"id", b.ID, "kept", kept.Origin, "dropped", dropped.Origin)
		}
	}

	beads := make([]*model.Bead, 0, len(merged))
	for _, b := range merged {
		beads = append(beads, b)
	}
	shadows := synthesizeShadows(merged, time.Now())

	report.Duration = time.Since(started)
	return graph.Build(beads, shadows), report, nil
}

// fetchRig fetches and parses one rig. All failures are folded into the
// returned report; this never escalates.
func (a *Aggregator) fetchRig(ctx context.Context, rig model.Rig) rigResult {
	res := rigResult{report: RigReport{Rig: rig.Name}}

	co, err := a.src.Fetch(ctx, &rig)
	switch {
	case source.IsNotInitialized(err):
		// A rig with no records yet is empty, not broken.
		a.logger.Info("rig has no records", "rig", rig.Name)
		return res
	case err != nil:
		res.report.Degraded = true
		res.report.Err = err.Error()
		a.logger.Warn("rig unreachable, skipping", "rig", rig.Name, "err", err)
		return res
	}
	res.report.Revision = co.Revision

	parsed, err := jsonl.Parse(bytes.NewReader(co.Content))
	if err != nil {
		res.report.Degraded = true
		res.report.Err = fmt.Sprintf("parse: %v", err)
		return res
	}
	res.report.RecordErrors = parsed.Errors
	for _, re := range parsed.Errors {
		a.logger.Warn("rejected record", "rig", rig.Name, "line", re.Line, "reason", re.Reason)
	}

	for _, b := range parsed.Beads {
		b.Origin = rig.Name
	}
	res.beads = parsed.Beads
	res.report.BeadCount = len(parsed.Beads)
	return res
}

// synthesizeShadows builds one shadow bead per distinct reference URI
// declared by epic beads. A shadow mirrors its target's status when the
// target resolves inside the merged set and goes stale otherwise; it is
// rebuilt from scratch every pass and never owns field truth.
func synthesizeShadows(merged map[model.BeadID]*model.Bead, now time.Time) []*model.ShadowBead {
	epics := make([]*model.Bead, 0)
	for _, b := range merged {
		if b.IssueType == model.TypeEpic {
			epics = append(epics, b)
		}
	}
	sort.Slice(epics, func(i, j int) bool { return epics[i].ID < epics[j].ID })

	byRef := make(map[string]*model.ShadowBead)
	var shadows []*model.ShadowBead
	for _, epic := range epics {
		for _, dep := range epic.DependsOn {
			ref := string(dep)
			if !strings.Contains(ref, "://") {
				continue
			}
			if _, seen := byRef[ref]; seen {
				continue
			}
			shadow := synthesizeShadow(ref, merged, now)
			byRef[ref] = shadow
			shadows = append(shadows, shadow)
		}
	}
	return shadows
}

func synthesizeShadow(ref string, merged map[model.BeadID]*model.Bead, now time.Time) *model.ShadowBead {
	shadow := model.NewShadowBead(ref)

	bref, err := model.ParseBeadRef(ref)
	if err != nil {
		// External URI: core has no adapter to mirror it.
		return shadow.WithStale(true)
	}
	target, found := merged[bref.ID]
	if !found || target.Origin != bref.Rig {
		return shadow.WithStale(true)
	}

	return shadow.
		WithTitle(target.Title).
		WithStatus(target.Status).
		WithPriority(target.Priority).
		WithSummary(target.Description).
		WithDependsOn(crossRefs(target)...).
		WithSyncedAt(now)
}

// crossRefs renders a bead's dependencies as reference URIs so a shadow
// carries them in a form any aggregating context can resolve.
func crossRefs(b *model.Bead) []string {
	if len(b.DependsOn) == 0 {
		return nil
	}
	refs := make([]string, 0, len(b.DependsOn))
	for _, dep := range b.DependsOn {
		ref := string(dep)
		if !strings.Contains(ref, "://") {
			ref = model.BeadRef{Rig: b.Origin, ID: dep}.String()
		}
		refs = append(refs, ref)
	}
	return refs
}
