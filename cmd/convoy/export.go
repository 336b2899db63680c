package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	convoysync "github.com/alfredjeanlab/convoy/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the snapshot as JSONL to stdout, a file, or the [sync] destinations",
	GroupID: "federation",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		push, _ := cmd.Flags().GetBool("push")
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		file, snap, err := localSnapshotWithFile(ctx, cfg)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := convoysync.ExportJSONL(snap, &buf); err != nil {
			return fmt.Errorf("rendering export: %w", err)
		}

		if push {
			dests := buildDestinations(ctx, file.Sync, quietLogger())
			if len(dests) == 0 {
				return fmt.Errorf("no [sync] destinations configured in %s", cfg.RigsFile)
			}
			for _, d := range dests {
				if err := d.Write(ctx, buf.Bytes()); err != nil {
					return fmt.Errorf("writing to %T: %w", d, err)
				}
			}
			fmt.Fprintf(os.Stderr, "pushed %d bytes to %d destinations\n", buf.Len(), len(dests))
			return nil
		}

		w := os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		_, err = w.Write(buf.Bytes())
		return err
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	exportCmd.Flags().Bool("push", false, "write to the [sync] destinations instead of stdout")
}
