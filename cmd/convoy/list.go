package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/convoy/internal/client"
	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List beads across the federation",
	GroupID: "queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, _ := cmd.Flags().GetString("origin")
		status, _ := cmd.Flags().GetString("status")
		beadType, _ := cmd.Flags().GetString("type")
		assignee, _ := cmd.Flags().GetString("assignee")
		label, _ := cmd.Flags().GetString("label")
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := context.Background()

		if api := remote(); api != nil {
			beads, total, err := api.ListBeads(ctx, client.ListFilter{
				Origin:   origin,
				Status:   status,
				Type:     beadType,
				Assignee: assignee,
				Label:    label,
				Limit:    limit,
			})
			if err != nil {
				return fmt.Errorf("listing beads: %w", err)
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

		beads := snap.Graph.List(graph.Filter{
			Origin:   model.RigID(origin),
			Status:   model.Status(status),
			Type:     model.IssueType(beadType),
			Assignee: assignee,
			Label:    label,
		})
		total := len(beads)
		if limit > 0 && len(beads) > limit {
			beads = beads[:limit]
		}
		if jsonOutput {
			printJSON(beads)
		} else {
			printBeadListTable(beads, total)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("origin", "o", "", "filter by origin rig")
	listCmd.Flags().StringP("status", "s", "", "filter by status")
	listCmd.Flags().StringP("type", "t", "", "filter by issue type")
	listCmd.Flags().String("assignee", "", "filter by assignee")
	listCmd.Flags().StringP("label", "l", "", "filter by label")
	listCmd.Flags().Int("limit", 50, "maximum number of beads to show")
}
