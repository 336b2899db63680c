package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:     "graph <bead-id>",
	Short:   "Show a bead's dependency tree across the federation",
	GroupID: "queries",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := model.BeadID(args[0])
		depth, _ := cmd.Flags().GetInt("depth")
		ctx := context.Background()

		var g *graph.FederatedGraph
		if api := remote(); api != nil {
			var err error
			g, _, err = api.Graph(ctx)
			if err != nil {
				return fmt.Errorf("fetching graph: %w", err)
			}
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			snap, err := localSnapshot(ctx, cfg)
			if err != nil {
				return err
			}
			g = snap.Graph
		}

		b, ok := g.Bead(id)
		if !ok {
			return fmt.Errorf("bead %s not found", id)
		}

		fmt.Printf("%s [%s] %s\n", b.ID, renderStatus(b.Status), b.Title)
		seen := map[model.BeadID]bool{b.ID: true}
		printDepTree(g, b.DependsOn, "", depth-1, seen)
		return nil
	},
}

// printDepTree renders dependencies as an ASCII tree, resolving
// cross-repo refs through shadows and marking revisited nodes instead
// of looping.
func printDepTree(g *graph.FederatedGraph, deps []model.BeadID, prefix string, remainingDepth int, seen map[model.BeadID]bool) {
	for i, dep := range deps {
		isLast := i == len(deps)-1

		connector := "├── "
		childPrefix := prefix + "│   "
		if isLast {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if depBead, ok := g.Bead(dep); ok {
			if seen[dep] {
				fmt.Printf("%s%s%s (cycle)\n", prefix, connector, depBead.ID)
				continue
			}
			fmt.Printf("%s%s%s [%s] %s\n", prefix, connector, depBead.ID, renderStatus(depBead.Status), truncate(depBead.Title, 50))
			if remainingDepth > 0 && len(depBead.DependsOn) > 0 {
				seen[dep] = true
				printDepTree(g, depBead.DependsOn, childPrefix, remainingDepth-1, seen)
				delete(seen, dep)
			}
			continue
		}

		if s, ok := g.Shadow(string(dep)); ok {
			marker := "shadow"
			if s.Stale {
				marker = "shadow, stale"
			}
			fmt.Printf("%s%s%s [%s] (%s)\n", prefix, connector, s.Ref, renderStatus(s.Status), marker)
			if remainingDepth > 0 && len(s.DependsOn) > 0 {
				shadowDeps := make([]model.BeadID, len(s.DependsOn))
				for j, sd := range s.DependsOn {
					shadowDeps[j] = model.BeadID(sd)
				}
				printDepTree(g, shadowDeps, childPrefix, remainingDepth-1, seen)
			}
			continue
		}

		fmt.Printf("%s%s%s (external)\n", prefix, connector, dep)
	}
}

func init() {
	graphCmd.Flags().Int("depth", 3, "maximum depth to traverse")
}
