// Package main is the entry point for the mesboard CLI.
//
// Usage:
//
//	mesboard serve -c config.yaml       # Start the dashboard
//	mesboard validate -c config.yaml    # Validate configuration
//	mesboard backend --port 5000        # Run the demo MES backend
//	mesboard version                    # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags, e.g. -ldflags "-X main.version=1.0.0".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mesboard",
	Short: "A live dashboard for a manufacturing execution system",
	Long: `MESBoard polls JSON statistics endpoints, pushes the values to a web
dashboard over Server-Sent Events, and shows one toast notification at a
time when sources fail or recover.

Quick start:
  1. Run the demo backend: mesboard backend --port 5000
  2. Create a config file (mesboard.yaml)
  3. Run: mesboard serve -c mesboard.yaml
  4. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  poll_interval: 10s
  sources:
    - name: production
      url: http://localhost:5000/api/production-stats
      fields:
        - completion-rate: completion_rate|percent`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this mesboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mesboard %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
