package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/model"
	"github.com/alfredjeanlab/convoy/internal/ui"
	"github.com/spf13/cobra"
)

var rigsCmd = &cobra.Command{
	Use:     "rigs",
	Short:   "List the configured rigs and their last-seen revisions",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, rigs, err := loadFederation(cfg)
		if err != nil {
			return err
		}

		// Revisions come from the last snapshot when one exists; a rig
		// listing without a cache is still useful.
		revisions := map[model.RigID]string{}
		if c, err := cache.Open(cfg.CacheURL); err == nil {
			if snap, err := c.Load(ctx); err == nil && snap != nil {
				revisions = snap.Revisions
			}
			c.Close()
		}

		if jsonOutput {
			printJSON(rigs)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLOCATOR\tFILE\tAUTH\tREVISION\t")
		for _, r := range rigs {
			locator := r.Remote
			if locator == "" {
				locator = r.Path
			}
			rev := revisions[r.Name]
			if len(rev) > 8 {
				rev = rev[:8]
			}
			if rev == "" {
				rev = "-"
			}
			note := ""
			if r.Disabled {
				note = ui.RenderMuted("disabled")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				ui.RenderAccent(r.Name.String()),
				truncate(locator, 48),
				r.BeadsFile(),
				r.AuthMode(),
				rev,
				note,
			)
		}
		w.Flush()
		fmt.Printf("\n%d rigs\n", len(rigs))
		return nil
	},
}
