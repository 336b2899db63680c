package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var blockedCmd = &cobra.Command{
	Use:     "blocked",
	Short:   "Show beads held by open dependencies and what holds them",
	GroupID: "queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := context.Background()

		if api := remote(); api != nil {
			blocked, total, err := api.Blocked(ctx, limit)
			if err != nil {
				return fmt.Errorf("listing blocked beads: %w", err)
			}
			if jsonOutput {
				printJSON(blocked)
			} else {
				printBlockedTable(blocked, total)
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

		blocked := snap.Graph.Blocked()
		total := len(blocked)
		if limit > 0 && len(blocked) > limit {
			blocked = blocked[:limit]
		}
		if jsonOutput {
			printJSON(blocked)
		} else {
			printBlockedTable(blocked, total)
		}
		return nil
	},
}

func init() {
	blockedCmd.Flags().Int("limit", 20, "maximum number of results")
}
