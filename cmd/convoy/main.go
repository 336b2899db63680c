// Command convoy aggregates bead records from a fleet of rigs into one
// federated dependency graph and answers queries against it, either
// from the local snapshot cache or from a running sheriff daemon.
package main

import (
	"os"

	"github.com/alfredjeanlab/convoy/internal/client"
	"github.com/alfredjeanlab/convoy/internal/config"
	"github.com/alfredjeanlab/convoy/internal/ui"
	"github.com/spf13/cobra"

	_ "github.com/alfredjeanlab/convoy/internal/cache/postgres"
	_ "github.com/alfredjeanlab/convoy/internal/cache/sqlite"
)

var (
	serverURL  string
	jsonOutput bool
	noColor    bool
	rigsFlag   string
	cacheFlag  string
)

func defaultServerURL() string {
	return os.Getenv("CONVOY_SERVER")
}

// remote returns a client for the --server target, or nil when query
// commands should read the local cache instead.
func remote() *client.Client {
	if serverURL == "" {
		return nil
	}
	return client.New(serverURL, os.Getenv("CONVOY_AUTH_TOKEN"))
}

// loadConfig loads the environment configuration with flag overrides
// applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if rigsFlag != "" {
		cfg.RigsFile = rigsFlag
	}
	if cacheFlag != "" {
		cfg.CacheURL = cacheFlag
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "convoy <command>",
	Short: "Federated bead graph aggregator for multi-rig fleets",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "convoy server URL (query a running sheriff instead of the local cache)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	rootCmd.PersistentFlags().StringVar(&rigsFlag, "rigs", "", "rigs file (overrides CONVOY_RIGS)")
	rootCmd.PersistentFlags().StringVar(&cacheFlag, "cache", "", "cache URL (overrides CONVOY_CACHE_URL)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "federation", Title: "Federation:"},
		&cobra.Group{ID: "queries", Title: "Queries:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Federation
	rootCmd.AddCommand(sheriffCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)

	// Queries
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(blockedCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(edgesCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(statsCmd)

	// System
	rootCmd.AddCommand(rigsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
