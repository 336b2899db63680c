package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/spf13/cobra"
)

var edgesCmd = &cobra.Command{
	Use:     "edges",
	Short:   "Show dependency edges; --cross narrows to rig-spanning ones",
	GroupID: "queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		crossOnly, _ := cmd.Flags().GetBool("cross")
		ctx := context.Background()

		if api := remote(); api != nil {
			edges, err := api.Edges(ctx, crossOnly)
			if err != nil {
				return fmt.Errorf("listing edges: %w", err)
			}
			if jsonOutput {
				printJSON(edges)
			} else {
				printEdgesTable(edges)
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

		var edges []graph.Edge
		if crossOnly {
			edges = snap.Graph.CrossRepoEdges()
		} else {
			edges = snap.Graph.Edges()
		}
		if jsonOutput {
			printJSON(edges)
		} else {
			printEdgesTable(edges)
		}
		return nil
	},
}

func init() {
	edgesCmd.Flags().Bool("cross", false, "only edges spanning two rigs")
}
