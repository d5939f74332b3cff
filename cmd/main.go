// Package main is the entry point for the huntboard CLI.
//
// Usage:
//
//	huntboard serve               # Start the leaderboard service
//	huntboard migrate             # Create the table and change trigger
//	huntboard seed -n 200         # Load a running service with random entries
//	huntboard hash-password       # Print a bcrypt hash for admin_password_hash
//	huntboard version             # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "huntboard",
	Short: "Live leaderboard for the campus treasure hunt",
	Long: `Huntboard mirrors the treasure hunt results table into memory, keeps it
fresh from change notifications and serves ranked, filtered views over HTTP
and a websocket stream.

Configuration comes from defaults, an optional YAML file (HUNT_CONFIG),
an optional .env file (HUNT_ENV_FILE) and HUNT_* environment variables.
Without HUNT_STORE_URL and HUNT_STORE_KEY the service starts degraded and
answers data routes with 503 configuration_required.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error.
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "huntboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
