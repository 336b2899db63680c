package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/convoy/internal/ui"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check a convoy server and its daemon state",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := remote()
		if api == nil {
			return fmt.Errorf("health needs --server or CONVOY_SERVER")
		}

		h, err := api.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking server: %w", err)
		}
		if jsonOutput {
			printJSON(h)
			return nil
		}

		status := h.Status
		if status == "ok" {
			status = ui.RenderGood(status)
		} else {
			status = ui.RenderBad(status)
		}
		fmt.Printf("Status:  %s\n", status)
		if h.Sheriff != "" {
			fmt.Printf("Sheriff: %s\n", h.Sheriff)
		}
		return nil
	},
}
