// Package cli implements the mockhive command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mockhive",
	Short: "mockhive runs configurable mock HTTP API servers",
	Long: `mockhive serves mock HTTP APIs from declarative server configs.

Each config describes one server: its port, explicit routes with templated
responses, stateful CRUD resources, runtime override profiles, and an
optional proxy fallback. Configs are JSON or YAML files, one per server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
