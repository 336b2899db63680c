package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id | bead://rig/id>",
	Short:   "Show one bead, or the shadow behind a cross-repo ref",
	GroupID: "queries",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := args[0]
		ctx := context.Background()

		if api := remote(); api != nil {
			if strings.HasPrefix(arg, "bead://") {
				g, _, err := api.Graph(ctx)
				if err != nil {
					return fmt.Errorf("fetching graph: %w", err)
				}
				s, ok := g.Shadow(arg)
				if !ok {
					return fmt.Errorf("no shadow for %s", arg)
				}
				if jsonOutput {
					printJSON(s)
				} else {
					printShadowTable(s)
				}
				return nil
			}
			b, err := api.GetBead(ctx, arg)
			if err != nil {
				return fmt.Errorf("fetching bead: %w", err)
			}
			if jsonOutput {
				printJSON(b)
			} else {
				printBeadTable(b)
			}
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		snap, err := localSnapshot(ctx, cfg)
		if err != nil {
			return err
		}
		g := snap.Graph

		if strings.HasPrefix(arg, "bead://") {
			s, ok := g.Shadow(arg)
			if !ok {
				return fmt.Errorf("no shadow for %s", arg)
			}
			if jsonOutput {
				printJSON(s)
			} else {
				printShadowTable(s)
			}
			return nil
		}

		b, ok := g.Bead(model.BeadID(arg))
		if !ok {
			// Shadow ids ("shadow/rig/id") are addressable too.
			for _, s := range g.Shadows() {
				if s.ID == model.BeadID(arg) {
					if jsonOutput {
						printJSON(s)
					} else {
						printShadowTable(s)
					}
					return nil
				}
			}
			return fmt.Errorf("bead %s not found", arg)
		}

		if jsonOutput {
			printJSON(b)
			return nil
		}
		printBeadTable(b)
		printResolvedDeps(g, b)
		printDependents(g, b.ID)
		return nil
	},
}

// printResolvedDeps lists each dependency with its current status,
// resolving cross-repo refs through their shadows.
func printResolvedDeps(g *graph.FederatedGraph, b *model.Bead) {
	if len(b.DependsOn) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Dependencies:")
	for _, dep := range b.DependsOn {
		if db, ok := g.Bead(dep); ok {
			fmt.Printf("  %s [%s] %s\n", db.ID, renderStatus(db.Status), truncate(db.Title, 60))
			continue
		}
		if s, ok := g.Shadow(string(dep)); ok {
			marker := "shadow"
			if s.Stale {
				marker = "shadow, stale"
			}
			fmt.Printf("  %s [%s] (%s)\n", s.Ref, renderStatus(s.Status), marker)
			continue
		}
		fmt.Printf("  %s (external)\n", dep)
	}
}

// printDependents lists the beads waiting on this one.
func printDependents(g *graph.FederatedGraph, id model.BeadID) {
	deps := g.Dependents(id)
	if len(deps) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Dependents:")
	for _, d := range deps {
		if db, ok := g.Bead(d); ok {
			fmt.Printf("  %s [%s] %s\n", db.ID, renderStatus(db.Status), truncate(db.Title, 60))
		} else {
			fmt.Printf("  %s\n", d)
		}
	}
}
