package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Short:   "Show the sheriff's last pass report",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := remote()
		if api == nil {
			return fmt.Errorf("report needs --server or CONVOY_SERVER; the pass report lives in the daemon (run `convoy aggregate` for a fresh local pass)")
		}

		report, err := api.Report(context.Background())
		if err != nil {
			return fmt.Errorf("fetching report: %w", err)
		}
		if jsonOutput {
			printJSON(report)
		} else {
			printReportTable(report)
		}
		return nil
	},
}
