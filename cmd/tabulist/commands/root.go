package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	// rootVersion is the build version, reported by telemetry.
	rootVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabulist",
		Short: "Tabulist - per-user todo lists over a flag store",
		Long: `Tabulist keeps a todo list per user, persisted as namespaced key-value
documents in a flag store. Records are written one key at a time, so
editing a single todo never disturbs its siblings.

Backends:
  - sqlite (default, durable)
  - memory (ephemeral, for development)`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newUsersCommand())
	rootCmd.AddCommand(newAddCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newDoneCommand())
	rootCmd.AddCommand(newEditCommand())
	rootCmd.AddCommand(newRmCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}
