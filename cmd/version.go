package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cainy/dockhand/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the dockhand version, commit hash, and build date.`,
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(version.Version())
			return
		}
		fmt.Printf("Dockhand %s\n", version.Version())
		fmt.Printf("Commit: %s\n", version.Commit())
		fmt.Printf("Built: %s\n", version.BuildDate())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Show only version number")
}
