// Package cmd implements the dockhand command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dockhand",
	Short: "Dockhand - Distribution registry companion",
	Long: `Dockhand receives webhook notifications from a distribution registry,
classifies them into typed events, and gives read access to the registry's
manifests, blobs and catalog with short-lived scoped tokens.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dockhand.toml)")
}
