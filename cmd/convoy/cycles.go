package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cyclesCmd = &cobra.Command{
	Use:     "cycles",
	Short:   "Show dependency cycles in the federation",
	GroupID: "queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if api := remote(); api != nil {
			cycles, err := api.Cycles(ctx)
			if err != nil {
				return fmt.Errorf("listing cycles: %w", err)
			}
			if jsonOutput {
				printJSON(cycles)
			} else {
				printCycles(cycles)
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

		cycles := snap.Graph.Cycles()
		if jsonOutput {
			printJSON(cycles)
		} else {
			printCycles(cycles)
		}
		return nil
	},
}
