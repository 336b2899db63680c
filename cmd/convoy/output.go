package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/convoy/internal/aggregate"
	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/alfredjeanlab/convoy/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// renderStatus colors a status by its class: active work in accent,
// held work in warn, finished work muted.
func renderStatus(s model.Status) string {
	switch s {
	case model.StatusInProgress:
		return ui.RenderAccent(s.String())
	case model.StatusBlocked, model.StatusDeferred:
		return ui.RenderWarn(s.String())
	case model.StatusClosed, model.StatusTombstone:
		return ui.RenderMuted(s.String())
	default:
		return s.String()
	}
}

func printBeadListTable(beads []*model.Bead, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORIGIN\tSTATUS\tPRI\tTYPE\tTITLE\tASSIGNEE")
	for _, b := range beads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ui.RenderAccent(b.ID.String()),
			b.Origin,
			renderStatus(b.Status),
			b.Priority,
			b.IssueType,
			truncate(b.Title, 50),
			b.Assignee,
		)
	}
	w.Flush()
	fmt.Printf("\n%d beads (%d total)\n", len(beads), total)
}

func printBeadTable(b *model.Bead) {
	fmt.Printf("ID:          %s\n", ui.RenderAccent(b.ID.String()))
	fmt.Printf("Origin:      %s\n", b.Origin)
	fmt.Printf("Title:       %s\n", b.Title)
	fmt.Printf("Type:        %s\n", b.IssueType)
	fmt.Printf("Status:      %s\n", renderStatus(b.Status))
	fmt.Printf("Priority:    %s\n", b.Priority)
	if b.Assignee != "" {
		fmt.Printf("Assignee:    %s\n", b.Assignee)
	}
	if b.Description != "" {
		fmt.Printf("Description: %s\n", b.Description)
	}
	if len(b.Labels) > 0 {
		fmt.Printf("Labels:      %s\n", strings.Join(b.Labels, ", "))
	}
	if len(b.DependsOn) > 0 {
		fmt.Printf("Depends On:  %s\n", joinIDs(b.DependsOn))
	}
	if len(b.Blocks) > 0 {
		fmt.Printf("Blocks:      %s\n", joinIDs(b.Blocks))
	}
	if b.Notes != "" {
		fmt.Printf("Notes:       %s\n", b.Notes)
	}
	if !b.CreatedAt.IsZero() {
		fmt.Printf("Created At:  %s\n", b.CreatedAt.Format(timeLayout))
	}
	if !b.UpdatedAt.IsZero() {
		fmt.Printf("Updated At:  %s\n", b.UpdatedAt.Format(timeLayout))
	}
}

func printShadowTable(s *model.ShadowBead) {
	fmt.Printf("ID:          %s\n", ui.RenderAccent(s.ID.String()))
	fmt.Printf("Ref:         %s\n", s.Ref)
	if s.Title != "" {
		fmt.Printf("Title:       %s\n", s.Title)
	}
	status := renderStatus(s.Status)
	if s.Stale {
		status += " " + ui.RenderWarn("(stale)")
	}
	fmt.Printf("Status:      %s\n", status)
	if s.Origin != "" {
		fmt.Printf("Origin:      %s\n", s.Origin)
	}
	if s.Summary != "" {
		fmt.Printf("Summary:     %s\n", s.Summary)
	}
	if !s.SyncedAt.IsZero() {
		fmt.Printf("Synced At:   %s\n", s.SyncedAt.Format(timeLayout))
	}
}

func joinIDs(ids []model.BeadID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

func printBlockedTable(blocked []*graph.BlockedBead, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORIGIN\tPRI\tTITLE\tBLOCKED BY")
	for _, bb := range blocked {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ui.RenderAccent(bb.Bead.ID.String()),
			bb.Bead.Origin,
			bb.Bead.Priority,
			truncate(bb.Bead.Title, 40),
			ui.RenderWarn(joinIDs(bb.BlockedBy)),
		)
	}
	w.Flush()
	fmt.Printf("\n%d blocked (%d total)\n", len(blocked), total)
}

func printCycles(cycles [][]model.BeadID) {
	if len(cycles) == 0 {
		fmt.Println(ui.RenderGood("No dependency cycles."))
		return
	}
	for _, cycle := range cycles {
		parts := make([]string, 0, len(cycle)+1)
		for _, id := range cycle {
			parts = append(parts, id.String())
		}
		// Repeat the first id so the loop closes visually.
		parts = append(parts, cycle[0].String())
		fmt.Println(ui.RenderBad(strings.Join(parts, " -> ")))
	}
	fmt.Printf("\n%d cycles\n", len(cycles))
}

func printEdgesTable(edges []graph.Edge) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FROM\tTO\tCROSS-REPO")
	for _, e := range edges {
		cross := ""
		if e.CrossRepo {
			cross = ui.RenderWarn("yes")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.From, e.To, cross)
	}
	w.Flush()
	fmt.Printf("\n%d edges\n", len(edges))
}

func printStatsTable(stats *graph.Stats) {
	fmt.Println(ui.RenderAccent("Federation"))
	fmt.Printf("  Beads:            %d\n", stats.Beads)
	fmt.Printf("  Shadows:          %d\n", stats.Shadows)
	fmt.Printf("  Ready:            %s\n", ui.RenderGood(fmt.Sprintf("%d", stats.Ready)))
	fmt.Printf("  Blocked:          %s\n", ui.RenderWarn(fmt.Sprintf("%d", stats.Blocked)))
	fmt.Printf("  Cross-repo edges: %d\n", stats.CrossRepoEdges)
	fmt.Printf("  External refs:    %d\n", stats.ExternalRefs)
	cycles := fmt.Sprintf("%d", stats.Cycles)
	if stats.Cycles > 0 {
		cycles = ui.RenderBad(cycles)
	}
	fmt.Printf("  Cycles:           %s\n", cycles)

	if len(stats.ByStatus) > 0 {
		fmt.Println()
		fmt.Println(ui.RenderAccent("By status"))
		for _, k := range sortedKeys(stats.ByStatus) {
			fmt.Printf("  %-12s %d\n", k, stats.ByStatus[model.Status(k)])
		}
	}
	if len(stats.ByPriority) > 0 {
		fmt.Println()
		fmt.Println(ui.RenderAccent("By priority"))
		for _, k := range sortedKeys(stats.ByPriority) {
			fmt.Printf("  %-12s %d\n", k, stats.ByPriority[k])
		}
	}
	if len(stats.ByOrigin) > 0 {
		fmt.Println()
		fmt.Println(ui.RenderAccent("By origin"))
		for _, k := range sortedKeys(stats.ByOrigin) {
			fmt.Printf("  %-12s %d\n", k, stats.ByOrigin[model.RigID(k)])
		}
	}
}

// sortedKeys returns the map's keys as sorted strings, so stats output
// is stable across runs.
func sortedKeys[K ~string, V any](m map[K]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

func printReportTable(report *aggregate.Report) {
	fmt.Printf("Pass %s completed in %s\n\n", ui.RenderAccent(report.PassID), report.Duration.Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RIG\tREVISION\tBEADS\tSTATUS")
	for _, rr := range report.Rigs {
		rev := rr.Revision
		if len(rev) > 8 {
			rev = rev[:8]
		}
		if rev == "" {
			rev = "-"
		}
		status := ui.RenderGood("ok")
		switch {
		case rr.Degraded:
			status = ui.RenderBad("degraded: " + rr.Err)
		case len(rr.RecordErrors) > 0:
			status = ui.RenderWarn(fmt.Sprintf("%d record errors", len(rr.RecordErrors)))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", rr.Rig, rev, rr.BeadCount, status)
	}
	w.Flush()

	if len(report.Collisions) > 0 {
		fmt.Println()
		fmt.Println(ui.RenderWarn("Collisions:"))
		for _, c := range report.Collisions {
			fmt.Printf("  %s: kept %s, dropped %s\n", c.ID, c.Kept, c.Dropped)
		}
	}
}

// warnStale tells the operator on stderr when the snapshot has outlived
// the configured TTL. The data is still shown; freshness is advisory.
func warnStale(snap *cache.Snapshot, ttl time.Duration) {
	if ttl <= 0 || snap == nil {
		return
	}
	if age := snap.Age(); age > ttl {
		fmt.Fprintln(os.Stderr, ui.RenderWarn(fmt.Sprintf(
			"snapshot is %s old (ttl %s); start `convoy sheriff` or run `convoy aggregate` to refresh",
			age.Round(time.Second), ttl)))
	}
}
