// Package main is the entry point for the neighborhood watch CLI.
//
// Usage:
//
//	watch                # Run one cycle and print the alert display
//	watch run -l Utrecht # Run one cycle for another location
//	watch recent -n 5    # Print the five newest stored records
//	watch serve          # Serve the records API and health endpoints
//	watch version        # Show version info
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "watch",
	Short: "Collect neighborhood weather and incident data into a bounded record store",
	Long: `Neighborhood watch runs perceive-then-publish cycles.

Each cycle fetches weather and incident data for the monitored location,
packages it with a UTC fetch time, and appends it to a JSON record store
that keeps the most recent records only.

Configuration comes from environment variables; a .env file in the working
directory is loaded first if present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
	RunE: runCycleCmd,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "watch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Flags().StringP("location", "l", "", "location to monitor (defaults to MONITOR_LOCATION)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the error.
		os.Exit(1)
	}
}
