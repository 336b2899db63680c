package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var readyCmd = &cobra.Command{
	Use:     "ready",
	Short:   "Show beads ready to work on (open, nothing blocking them)",
	GroupID: "queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := context.Background()

		if api := remote(); api != nil {
			beads, total, err := api.Ready(ctx, limit)
			if err != nil {
				return fmt.Errorf("listing ready beads: %w", err)
			}
			if jsonOutput {
				printJSON(beads)
			} else {
				printBeadListTable(beads, total)
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

		ready := snap.Graph.Ready()
		total := len(ready)
		if limit > 0 && len(ready) > limit {
			ready = ready[:limit]
		}
		if jsonOutput {
			printJSON(ready)
		} else {
			printBeadListTable(ready, total)
		}
		return nil
	},
}

func init() {
	readyCmd.Flags().Int("limit", 20, "maximum number of results")
}
