package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/alfredjeanlab/convoy/internal/ui"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:     "cache",
	Short:   "Inspect or clear the snapshot cache",
	GroupID: "system",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cached snapshot's metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, _, err := loadFederation(cfg); err != nil {
			return err
		}

		c, err := cache.Open(cfg.CacheURL)
		if err != nil {
			return err
		}
		defer c.Close()

		snap, err := c.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading cached snapshot: %w", err)
		}
		if snap == nil {
			fmt.Println("cache is empty")
			return nil
		}

		age := snap.Age().Round(time.Second)
		if jsonOutput {
			printJSON(map[string]any{
				"pass_id":     snap.PassID,
				"captured_at": snap.CapturedAt,
				"age_seconds": int(age.Seconds()),
				"beads":       snap.Graph.Len(),
				"shadows":     len(snap.Graph.Shadows()),
				"revisions":   snap.Revisions,
			})
			return nil
		}

		freshness := ui.RenderGood("fresh")
		if cfg.CacheTTL > 0 && snap.Age() > cfg.CacheTTL {
			freshness = ui.RenderWarn("stale")
		}
		fmt.Printf("Pass:        %s\n", ui.RenderAccent(snap.PassID))
		fmt.Printf("Captured At: %s (%s ago, %s)\n", snap.CapturedAt.Format(timeLayout), age, freshness)
		fmt.Printf("TTL:         %s\n", cfg.CacheTTL)
		fmt.Printf("Beads:       %d\n", snap.Graph.Len())
		fmt.Printf("Shadows:     %d\n", len(snap.Graph.Shadows()))

		if len(snap.Revisions) > 0 {
			fmt.Println("\nRevisions:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, rig := range sortedKeys(snap.Revisions) {
				rev := snap.Revisions[model.RigID(rig)]
				if len(rev) > 8 {
					rev = rev[:8]
				}
				fmt.Fprintf(w, "  %s\t%s\n", rig, rev)
			}
			w.Flush()
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, _, err := loadFederation(cfg); err != nil {
			return err
		}

		c, err := cache.Open(cfg.CacheURL)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Clear(ctx); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
