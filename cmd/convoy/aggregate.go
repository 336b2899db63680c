package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/events"
	"github.com/alfredjeanlab/convoy/internal/sheriff"
	convoysync "github.com/alfredjeanlab/convoy/internal/sync"
	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:     "aggregate",
	Short:   "Run one aggregation pass and print the report",
	GroupID: "federation",
	RunE: func(cmd *cobra.Command, args []string) error {
		push, _ := cmd.Flags().GetBool("push")
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		file, rigs, err := loadFederation(cfg)
		if err != nil {
			return err
		}

		c, err := cache.Open(cfg.CacheURL)
		if err != nil {
			return err
		}
		defer c.Close()

		logger := quietLogger()

		// A manual pass publishes deltas like the daemon would, so
		// subscribers stay in step with the cache.
		var publisher events.Publisher = &events.NoopPublisher{}
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
		}
		defer publisher.Close()

		var dests []convoysync.Destination
		if push {
			dests = buildDestinations(ctx, file.Sync, logger)
		}

		d := sheriff.New(sheriff.Config{
			Aggregator:   newAggregator(cfg, logger),
			Rigs:         rigs,
			Cache:        c,
			Publisher:    publisher,
			Destinations: dests,
			PassTimeout:  cfg.PassTimeout,
			Logger:       logger,
		})
		if err := d.RunOnce(ctx); err != nil {
			return err
		}

		report := d.Report()
		if jsonOutput {
			printJSON(report)
			return nil
		}

		printReportTable(report)
		if snap := d.Snapshot(); snap != nil {
			fmt.Printf("\n%d beads, %d shadows cached\n", snap.Graph.Len(), len(snap.Graph.Shadows()))
		}
		return nil
	},
}

func init() {
	aggregateCmd.Flags().Bool("push", false, "also export the snapshot to the [sync] destinations")
}
