package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show federation-wide counts",
	GroupID: "queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if api := remote(); api != nil {
			stats, err := api.Stats(ctx)
			if err != nil {
				return fmt.Errorf("fetching stats: %w", err)
			}
			if jsonOutput {
				printJSON(stats)
			} else {
				printStatsTable(stats)
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

		stats := snap.Graph.Stats()
		if jsonOutput {
			printJSON(stats)
		} else {
			printStatsTable(stats)
		}
		return nil
	},
}
